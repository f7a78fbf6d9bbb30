package fixture

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/reserv/internal/rowset"
)

// AssertGolden compares the canonical encoding of rs against the fixture
// file <dir>/<name>.json. Fails the test (via goldie) on any difference.
//
// To regenerate fixtures, run:
//
//	go test ./... -update
func AssertGolden(t *testing.T, dir, name string, rs *rowset.RowSet) {
	t.Helper()

	if err := ValidateName(name); err != nil {
		t.Fatal(err)
	}

	data, err := rowset.Encode(rs)
	if err != nil {
		t.Fatalf("encode %s: %v", name, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir(dir),
		goldie.WithNameSuffix(Extension),
	)
	g.Assert(t, name, data)
}
