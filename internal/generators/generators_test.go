package generators

import (
	"errors"
	"math/rand"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mmrzaf/magicgen/internal/domain"
)

var uuid4Re = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

func testRand() *rand.Rand {
	return rand.New(rand.NewSource(7))
}

func TestTimestampGenerator(t *testing.T) {
	fixed := time.Date(2021, 10, 7, 0, 0, 0, 0, time.UTC)
	g := NewTimestampWithClock(func() time.Time { return fixed })

	require.Equal(t, float64(fixed.Unix()), g.Generate(testRand()))
	require.Equal(t, KindTimestamp, g.Kind())
}

func TestTimestampGenerator_MicrosecondPrecision(t *testing.T) {
	fixed := time.Unix(1633564800, 123456000)
	g := NewTimestampWithClock(func() time.Time { return fixed })

	require.InDelta(t, 1633564800.123456, g.Generate(testRand()), 1e-6)
}

func TestConstGenerator(t *testing.T) {
	cases := []struct {
		fieldType domain.FieldType
		value     any
		want      any
	}{
		{domain.FieldTypeInt, nil, nil},
		{domain.FieldTypeString, nil, ""},
		{domain.FieldTypeInt, int64(10), int64(10)},
		{domain.FieldTypeString, "aaa", "aaa"},
	}
	rng := testRand()
	for _, tc := range cases {
		g, err := NewConst(tc.fieldType, tc.value)
		require.NoError(t, err)
		for i := 0; i < 5; i++ {
			require.Equal(t, tc.want, g.Generate(rng))
		}
	}
}

func TestConstGenerator_RejectsWrongType(t *testing.T) {
	_, err := NewConst(domain.FieldTypeInt, "10")
	require.ErrorIs(t, err, domain.ErrSchema)

	_, err = NewConst(domain.FieldTypeTimestamp, nil)
	require.ErrorIs(t, err, domain.ErrSchema)
}

func TestRangeGenerator_StaysInBounds(t *testing.T) {
	cases := []struct{ min, max int64 }{
		{1, 6},
		{DefaultRangeMin, DefaultRangeMax},
		{5, 5},
		{0, 1},
	}
	rng := testRand()
	for _, tc := range cases {
		g, err := NewRange(tc.min, tc.max)
		require.NoError(t, err)
		for i := 0; i < 1000; i++ {
			v, ok := g.Generate(rng).(int64)
			require.True(t, ok)
			require.GreaterOrEqual(t, v, tc.min)
			require.LessOrEqual(t, v, tc.max)
		}
	}
}

func TestRangeGenerator_HitsBothEnds(t *testing.T) {
	g, err := NewRange(1, 3)
	require.NoError(t, err)

	seen := map[int64]bool{}
	rng := testRand()
	for i := 0; i < 1000; i++ {
		seen[g.Generate(rng).(int64)] = true
	}
	require.Equal(t, map[int64]bool{1: true, 2: true, 3: true}, seen)
}

func TestRangeGenerator_RejectsInvertedBounds(t *testing.T) {
	_, err := NewRange(20, 1)

	var se *domain.SchemaError
	require.True(t, errors.As(err, &se))
	require.Equal(t, ReasonInvertedRange, se.Reason)
}

func TestListGenerator(t *testing.T) {
	cases := []struct {
		fieldType domain.FieldType
		values    []any
	}{
		{domain.FieldTypeInt, []any{int64(1), int64(2), int64(3)}},
		{domain.FieldTypeString, []any{"a", "b", "c"}},
	}
	rng := testRand()
	for _, tc := range cases {
		g, err := NewList(tc.fieldType, tc.values)
		require.NoError(t, err)
		for i := 0; i < 50; i++ {
			require.Contains(t, tc.values, g.Generate(rng))
		}
	}
}

func TestListGenerator_CollapsesDuplicates(t *testing.T) {
	g, err := NewList(domain.FieldTypeString, []any{"a", "a", "a", "b"})
	require.NoError(t, err)
	require.Equal(t, []any{"a", "b"}, g.Values())
}

func TestListGenerator_Validation(t *testing.T) {
	_, err := NewList(domain.FieldTypeString, nil)
	require.ErrorIs(t, err, domain.ErrSchema)

	_, err = NewList(domain.FieldTypeString, []any{"a", int64(1)})
	require.ErrorIs(t, err, domain.ErrSchema)

	_, err = NewList(domain.FieldTypeInt, []any{int64(1), 2.5})
	require.ErrorIs(t, err, domain.ErrSchema)
}

func TestRandomStrGenerator(t *testing.T) {
	g := NewRandomString()
	rng := testRand()
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		s, ok := g.Generate(rng).(string)
		require.True(t, ok)
		require.Regexp(t, uuid4Re, s)
		require.False(t, seen[s], "duplicate uuid %s", s)
		seen[s] = true
	}
}

func TestNewUUID4_VersionAndVariant(t *testing.T) {
	a := NewUUID4(rand.New(rand.NewSource(5)))
	u, err := uuid.Parse(a)
	require.NoError(t, err)
	require.Equal(t, uuid.Version(4), u.Version())
	require.Equal(t, uuid.RFC4122, u.Variant())

	require.Equal(t, a, NewUUID4(rand.New(rand.NewSource(5))))
}

func TestParse(t *testing.T) {
	cases := []struct {
		fieldType domain.FieldType
		spec      string
		valid     bool
		kind      Kind
	}{
		{domain.FieldTypeTimestamp, "", true, KindTimestamp},
		{domain.FieldTypeTimestamp, "rand", false, 0},

		{domain.FieldTypeString, "rand", true, KindRandomString},
		{domain.FieldTypeString, "['a', 'b', 'c']", true, KindList},
		{domain.FieldTypeString, "['a','b','c']", true, KindList},
		{domain.FieldTypeString, `["a","b"]`, true, KindList},
		{domain.FieldTypeString, "['a','b',3]", false, 0},
		{domain.FieldTypeString, "[1,2,3]", false, 0},
		{domain.FieldTypeString, "[]", false, 0},
		{domain.FieldTypeString, "rand(1, 20)", false, 0},
		{domain.FieldTypeString, "random", false, 0},
		{domain.FieldTypeString, "cat", true, KindConst},
		{domain.FieldTypeString, "", true, KindConst},
		{domain.FieldTypeString, "a:b:c", true, KindConst},

		{domain.FieldTypeInt, "rand", true, KindRange},
		{domain.FieldTypeInt, "[1, 2, 3]", true, KindList},
		{domain.FieldTypeInt, "[1,2,3]", true, KindList},
		{domain.FieldTypeInt, "[1,2,'c']", false, 0},
		{domain.FieldTypeInt, "['a','b','c']", false, 0},
		{domain.FieldTypeInt, "[1,???,100]", false, 0},
		{domain.FieldTypeInt, "[1.5]", false, 0},
		{domain.FieldTypeInt, "rand(1, 20)", true, KindRange},
		{domain.FieldTypeInt, "rand(1,20)", true, KindRange},
		{domain.FieldTypeInt, "rand(1,  20)", false, 0},
		{domain.FieldTypeInt, "rand(-1, 20)", false, 0},
		{domain.FieldTypeInt, "rand(20, 1)", false, 0},
		{domain.FieldTypeInt, "rand(1, 20)x", false, 0},
		{domain.FieldTypeInt, "10", true, KindConst},
		{domain.FieldTypeInt, "-10", true, KindConst},
		{domain.FieldTypeInt, "", true, KindConst},
		{domain.FieldTypeInt, "cat", false, 0},
		{domain.FieldTypeInt, "aaa", false, 0},

		{domain.FieldType("float"), "1.5", false, 0},
	}

	for _, tc := range cases {
		g, err := Parse(tc.fieldType, tc.spec)
		if !tc.valid {
			require.ErrorIs(t, err, domain.ErrSchema, "%s:%s", tc.fieldType, tc.spec)
			require.Nil(t, g)
			continue
		}
		require.NoError(t, err, "%s:%s", tc.fieldType, tc.spec)
		require.Equal(t, tc.kind, g.Kind(), "%s:%s", tc.fieldType, tc.spec)
	}
}

func TestParse_ValuesMatchDeclaredType(t *testing.T) {
	specs := map[domain.FieldType][]string{
		domain.FieldTypeString:    {"", "rand", "cat", "['x','y']"},
		domain.FieldTypeInt:       {"rand", "rand(3, 9)", "42", "[4,5,6]"},
		domain.FieldTypeTimestamp: {""},
	}
	rng := testRand()
	for fieldType, list := range specs {
		for _, spec := range list {
			g, err := Parse(fieldType, spec)
			require.NoError(t, err)
			for i := 0; i < 20; i++ {
				v := g.Generate(rng)
				switch fieldType {
				case domain.FieldTypeString:
					require.IsType(t, "", v, spec)
				case domain.FieldTypeInt:
					require.IsType(t, int64(0), v, spec)
				case domain.FieldTypeTimestamp:
					require.IsType(t, float64(0), v, spec)
				}
			}
		}
	}
}

func TestParse_DefaultIntConstIsNull(t *testing.T) {
	g, err := Parse(domain.FieldTypeInt, "")
	require.NoError(t, err)
	require.Nil(t, g.Generate(testRand()))
}

func TestParse_ErrorCarriesSpecAndReason(t *testing.T) {
	_, err := Parse(domain.FieldTypeString, "rand(1, 20)")

	var se *domain.SchemaError
	require.True(t, errors.As(err, &se))
	require.Equal(t, ReasonRandomSuffix, se.Reason)
	require.Equal(t, "rand(1, 20)", se.Spec)
}
