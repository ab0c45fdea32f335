// Package businessflow contains the business logic for the application.
package businessflow

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"

	"github.com/amirphl/Seiryu-CRM/app/dto"
	"github.com/amirphl/Seiryu-CRM/repository"
	"github.com/amirphl/Seiryu-CRM/utils"
)

// CenterCodeFlow derives stable short codes for centers and mints lead reference numbers
type CenterCodeFlow interface {
	CodeForCenter(ctx context.Context, centerName string) (string, error)
	ListCenterCodes(ctx context.Context, actor Actor) (*dto.ListCenterCodesResponse, error)
	NewReferenceNo(ctx context.Context, centerName string) (string, error)
}

// CenterCodeFlowImpl implements CenterCodeFlow
type CenterCodeFlowImpl struct {
	userRepo repository.UserRepository
	leadRepo repository.LeadRepository
}

// NewCenterCodeFlow creates a new center code flow
func NewCenterCodeFlow(userRepo repository.UserRepository, leadRepo repository.LeadRepository) CenterCodeFlow {
	return &CenterCodeFlowImpl{
		userRepo: userRepo,
		leadRepo: leadRepo,
	}
}

// NormalizeCenterName uppercases the name, strips everything but letters and spaces,
// and collapses runs of whitespace
func NormalizeCenterName(input string) string {
	upper := strings.ToUpper(input)
	var b strings.Builder
	b.Grow(len(upper))
	for _, r := range upper {
		if r >= 'A' && r <= 'Z' {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// GenerateCenterCandidates produces ordered 2-3 letter code candidates for a center name.
// Multi-word names prefer 2-letter initials; single-word names prefer 3-letter prefixes.
func GenerateCenterCandidates(name string) []string {
	norm := NormalizeCenterName(name)
	if norm == "" {
		return []string{"XX"}
	}

	words := strings.Fields(norm)
	seen := make(map[string]struct{})
	var out []string
	push := func(c string) {
		var b strings.Builder
		for _, r := range c {
			if r >= 'A' && r <= 'Z' {
				b.WriteRune(r)
			}
		}
		cc := b.String()
		if len(cc) > 3 {
			cc = cc[:3]
		}
		if len(cc) < 2 {
			return
		}
		if _, ok := seen[cc]; ok {
			return
		}
		seen[cc] = struct{}{}
		out = append(out, cc)
	}

	if len(words) >= 2 {
		w1 := words[0]
		w2 := words[1]
		wl := words[len(words)-1]
		push(w1[:1] + w2[:1])
		push(w1[:1] + wl[:1])
		if len(w1) >= 2 {
			push(w1[:2])
		}
		if len(words) >= 3 {
			push(words[0][:1] + words[1][:1] + words[2][:1])
		}
		if len(w1) >= 2 {
			push(w1[:2] + w2[:1])
		}
		if len(w2) >= 2 {
			push(w1[:1] + w2[:2])
		}
		conc := strings.Join(words, "")
		if len(conc) >= 3 {
			push(string(conc[0]) + string(conc[len(conc)/2]) + string(conc[len(conc)-1]))
		}
	} else {
		w := words[0]
		if len(w) >= 3 {
			push(w[:3])
		}
		if len(w) >= 2 {
			push(w[:2])
		}
		if len(w) >= 3 {
			push(w[:2] + string(w[len(w)-1]))
			push(string(w[0]) + string(w[len(w)/2]) + string(w[len(w)-1]))
			push(string(w[0]) + string(w[1]) + string(w[len(w)-1]))
		}
		if len(w) == 1 {
			push(w + w)
		}
	}

	return out
}

// lettersHash maps a name deterministically to A-Z letters via FNV-1a,
// taking 5-bit windows of the 32-bit hash
func lettersHash(name string, length int) string {
	h := uint32(2166136261)
	for i := 0; i < len(name); i++ {
		h ^= uint32(name[i])
		h *= 16777619
	}
	out := make([]byte, length)
	for i := 0; i < length; i++ {
		v := (h >> (uint(i) * 5)) & 31
		out[i] = byte('A' + v%26)
	}
	return string(out)
}

// BuildCenterCodeMap assigns each known center a unique code. Names are processed in
// sorted order so the mapping stays stable as long as the set of centers is unchanged.
func (f *CenterCodeFlowImpl) BuildCenterCodeMap(ctx context.Context) (map[string]string, error) {
	rawNames, err := f.userRepo.DistinctCenterNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load center names: %w", err)
	}

	nameSet := make(map[string]struct{})
	for _, raw := range rawNames {
		if norm := NormalizeCenterName(raw); norm != "" {
			nameSet[norm] = struct{}{}
		}
	}
	names := make([]string, 0, len(nameSet))
	for name := range nameSet {
		names = append(names, name)
	}
	sort.Strings(names)

	used := make(map[string]struct{})
	codes := make(map[string]string, len(names))
	for _, name := range names {
		var pick string
		for _, cand := range GenerateCenterCandidates(name) {
			if _, taken := used[cand]; !taken {
				pick = cand
				break
			}
		}
		if pick == "" {
			prefLen := 3
			if len(strings.Fields(name)) >= 2 {
				prefLen = 2
			}
			pick = lettersHash(name, prefLen)
			if _, taken := used[pick]; taken {
				flipped := 2
				if prefLen == 2 {
					flipped = 3
				}
				pick = lettersHash(name+"#", flipped)
			}
			for salt := 1; salt < 10; salt++ {
				if _, taken := used[pick]; !taken {
					break
				}
				pick = lettersHash(fmt.Sprintf("%s::%d", name, salt), 3)
			}
		}
		used[pick] = struct{}{}
		codes[name] = pick
	}
	return codes, nil
}

// CodeForCenter returns the unique code of a center; unknown or empty names map to "XX"
func (f *CenterCodeFlowImpl) CodeForCenter(ctx context.Context, centerName string) (string, error) {
	norm := NormalizeCenterName(centerName)
	if norm == "" {
		return "XX", nil
	}
	codes, err := f.BuildCenterCodeMap(ctx)
	if err != nil {
		return "", err
	}
	if code, ok := codes[norm]; ok {
		return code, nil
	}
	if cands := GenerateCenterCandidates(norm); len(cands) > 0 {
		return cands[0], nil
	}
	return "XX", nil
}

// ListCenterCodes returns every center's assigned code, super admins only
func (f *CenterCodeFlowImpl) ListCenterCodes(ctx context.Context, actor Actor) (*dto.ListCenterCodesResponse, error) {
	if !actor.IsSuperAdmin() {
		return nil, NewBusinessError("CENTER_CODES_FORBIDDEN", "only super admins may list center codes", ErrForbidden)
	}

	codes, err := f.BuildCenterCodeMap(ctx)
	if err != nil {
		return nil, NewBusinessError("CENTER_CODES_FAILED", "failed to build center code map", err)
	}

	names := make([]string, 0, len(codes))
	for name := range codes {
		names = append(names, name)
	}
	sort.Strings(names)

	items := make([]dto.CenterCodeItem, 0, len(names))
	for _, name := range names {
		items = append(items, dto.CenterCodeItem{CenterName: name, Code: codes[name]})
	}

	return &dto.ListCenterCodesResponse{
		Message: "Center codes retrieved successfully",
		Centers: items,
	}, nil
}

// generateDigits returns a numeric sequence of the requested length (clamped to 8-10)
// with a non-zero leading digit
func generateDigits(length int) string {
	if length < utils.ReferenceDigitsMin {
		length = utils.ReferenceDigitsMin
	}
	if length > utils.ReferenceDigitsMax {
		length = utils.ReferenceDigitsMax
	}
	out := make([]byte, length)
	for i := range out {
		out[i] = byte('0' + rand.IntN(10))
	}
	if out[0] == '0' {
		out[0] = byte('1' + rand.IntN(9))
	}
	return string(out)
}

// NewReferenceNo mints a reference number: center code followed by 10 digits.
// A handful of regeneration attempts absorb rare collisions; the database unique
// index remains the final arbiter.
func (f *CenterCodeFlowImpl) NewReferenceNo(ctx context.Context, centerName string) (string, error) {
	code, err := f.CodeForCenter(ctx, centerName)
	if err != nil {
		return "", err
	}

	refNo := code + generateDigits(utils.ReferenceDigitsMax)
	for i := 0; i < utils.ReferenceGenerationRetries; i++ {
		exists, err := f.leadRepo.ExistsByReferenceNo(ctx, refNo)
		if err != nil {
			return "", fmt.Errorf("failed to check reference number: %w", err)
		}
		if !exists {
			break
		}
		refNo = code + generateDigits(utils.ReferenceDigitsMax)
	}
	return refNo, nil
}
