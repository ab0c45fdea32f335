package businessflow

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCenterName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercase", "delhi center", "DELHI CENTER"},
		{"punctuation stripped", "Delhi-Center (North)!", "DELHI CENTER NORTH"},
		{"digits stripped", "Center 42", "CENTER"},
		{"whitespace collapsed", "  Delhi    Center  ", "DELHI CENTER"},
		{"empty", "", ""},
		{"only symbols", "123 !@#", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeCenterName(tt.input))
		})
	}
}

func TestGenerateCenterCandidates(t *testing.T) {
	t.Run("multi-word prefers initials", func(t *testing.T) {
		cands := GenerateCenterCandidates("Delhi Center")
		require.NotEmpty(t, cands)
		assert.Equal(t, "DC", cands[0])
	})

	t.Run("single word prefers three letter prefix", func(t *testing.T) {
		cands := GenerateCenterCandidates("Mumbai")
		require.NotEmpty(t, cands)
		assert.Equal(t, "MUM", cands[0])
	})

	t.Run("three words include triple initials", func(t *testing.T) {
		cands := GenerateCenterCandidates("South Delhi Campus")
		assert.Contains(t, cands, "SDC")
	})

	t.Run("empty name falls back", func(t *testing.T) {
		assert.Equal(t, []string{"XX"}, GenerateCenterCandidates("  "))
	})

	t.Run("candidates are unique and well formed", func(t *testing.T) {
		cands := GenerateCenterCandidates("Bangalore East Center")
		seen := make(map[string]struct{})
		for _, c := range cands {
			assert.Regexp(t, `^[A-Z]{2,3}$`, c)
			_, dup := seen[c]
			assert.False(t, dup, "duplicate candidate %q", c)
			seen[c] = struct{}{}
		}
	})
}

func TestLettersHash(t *testing.T) {
	a := lettersHash("DELHI CENTER", 3)
	b := lettersHash("DELHI CENTER", 3)
	assert.Equal(t, a, b, "hash must be deterministic")
	assert.Regexp(t, `^[A-Z]{3}$`, a)

	c := lettersHash("MUMBAI CENTER", 3)
	assert.Regexp(t, `^[A-Z]{3}$`, c)

	two := lettersHash("DELHI CENTER", 2)
	assert.Regexp(t, `^[A-Z]{2}$`, two)
}

func TestBuildCenterCodeMap(t *testing.T) {
	fixture := newLeadFlowFixture()
	fixture.addUser(1, "m1", "center-manager", "Delhi Center", "online")
	fixture.addUser(2, "m2", "center-manager", "Dehradun Campus", "online")
	fixture.addUser(3, "m3", "center-manager", "Mumbai", "online")

	impl := fixture.centerCodes.(*CenterCodeFlowImpl)
	codes, err := impl.BuildCenterCodeMap(context.Background())
	require.NoError(t, err)
	require.Len(t, codes, 3)

	// Every center gets a code and no two centers share one
	used := make(map[string]string)
	for name, code := range codes {
		assert.Regexp(t, `^[A-Z]{2,3}$`, code)
		prev, taken := used[code]
		assert.False(t, taken, "code %q assigned to both %q and %q", code, prev, name)
		used[code] = name
	}

	// Stable across rebuilds with the same center set
	again, err := impl.BuildCenterCodeMap(context.Background())
	require.NoError(t, err)
	assert.Equal(t, codes, again)
}

func TestCodeForCenter(t *testing.T) {
	fixture := newLeadFlowFixture()
	fixture.addUser(1, "m1", "center-manager", "Delhi Center", "online")

	code, err := fixture.centerCodes.CodeForCenter(context.Background(), "Delhi Center")
	require.NoError(t, err)
	assert.Equal(t, "DC", code)

	t.Run("empty name maps to XX", func(t *testing.T) {
		code, err := fixture.centerCodes.CodeForCenter(context.Background(), "")
		require.NoError(t, err)
		assert.Equal(t, "XX", code)
	})

	t.Run("unknown center derives from candidates", func(t *testing.T) {
		code, err := fixture.centerCodes.CodeForCenter(context.Background(), "Pune Office")
		require.NoError(t, err)
		assert.Equal(t, "PO", code)
	})
}

func TestNewReferenceNo(t *testing.T) {
	fixture := newLeadFlowFixture()
	fixture.addUser(1, "c1", "counselor", "Delhi Center", "online")

	refNo, err := fixture.centerCodes.NewReferenceNo(context.Background(), "Delhi Center")
	require.NoError(t, err)
	assert.Regexp(t, `^DC[1-9][0-9]{9}$`, refNo)

	t.Run("regenerates on collision", func(t *testing.T) {
		fixture.leadRepo.refNoTakenCalls = 2
		refNo, err := fixture.centerCodes.NewReferenceNo(context.Background(), "Delhi Center")
		require.NoError(t, err)
		assert.Regexp(t, `^DC[1-9][0-9]{9}$`, refNo)
		assert.Zero(t, fixture.leadRepo.refNoTakenCalls, "collision checks were not consumed")
	})

	t.Run("no center falls back to XX prefix", func(t *testing.T) {
		refNo, err := fixture.centerCodes.NewReferenceNo(context.Background(), "")
		require.NoError(t, err)
		assert.Regexp(t, `^XX[1-9][0-9]{9}$`, refNo)
	})
}

func TestReferenceNoFormat(t *testing.T) {
	fixture := newLeadFlowFixture()
	fixture.addUser(1, "c1", "counselor", "Delhi Center", "online")

	pattern := regexp.MustCompile(`^[A-Z]{2,3}[0-9]{10}$`)
	for i := 0; i < 20; i++ {
		refNo, err := fixture.centerCodes.NewReferenceNo(context.Background(), "Delhi Center")
		require.NoError(t, err)
		assert.True(t, pattern.MatchString(refNo), "unexpected reference number %q", refNo)
	}
}

func TestListCenterCodes(t *testing.T) {
	fixture := newLeadFlowFixture()
	fixture.addUser(1, "m1", "center-manager", "Delhi Center", "online")
	fixture.addUser(2, "m2", "center-manager", "Mumbai", "online")

	t.Run("super admin sees every center", func(t *testing.T) {
		admin := Actor{ID: 99, Role: "super-admin", IsAdmin: true}
		resp, err := fixture.centerCodes.ListCenterCodes(context.Background(), admin)
		require.NoError(t, err)
		require.Len(t, resp.Centers, 2)
		assert.Equal(t, "DELHI CENTER", resp.Centers[0].CenterName)
		assert.Equal(t, "MUMBAI", resp.Centers[1].CenterName)
	})

	t.Run("manager is rejected", func(t *testing.T) {
		manager := Actor{ID: 1, Role: "center-manager", CenterName: "Delhi Center"}
		_, err := fixture.centerCodes.ListCenterCodes(context.Background(), manager)
		require.Error(t, err)
		var be *BusinessError
		require.ErrorAs(t, err, &be)
		assert.Equal(t, "CENTER_CODES_FORBIDDEN", be.Code)
		assert.True(t, IsForbidden(err))
	})
}
