package core_test

import (
	"testing"

	"github.com/cnpbank/cnp/core"
)

func TestHashFirstNameDeterministic(t *testing.T) {
	if core.HashFirstName("Alice") != core.HashFirstName("Alice") {
		t.Fatal("hash not deterministic for equal inputs")
	}
}

func TestHashFirstNameDistinctNames(t *testing.T) {
	if core.HashFirstName("Alice") == core.HashFirstName("Bob") {
		t.Fatal("distinct names hashed to the same value")
	}
}

func TestHashFirstNameBlockLengths(t *testing.T) {
	names := []string{"", "A", "Al", "Ali", "Alic", "Alice", "Alicen", "Alicenam"}
	seen := map[uint32]string{}
	for _, n := range names {
		h := core.HashFirstName(n)
		if prev, ok := seen[h]; ok {
			t.Fatalf("hash collision between %q and %q across block-length boundaries", prev, n)
		}
		seen[h] = n
	}
}

func TestCustomerIDDeterministic(t *testing.T) {
	a := core.CustomerID("Alice", 1234)
	b := core.CustomerID("Alice", 1234)
	if a != b {
		t.Fatalf("CustomerID not deterministic: %d != %d", a, b)
	}
}

func TestCustomerIDDistinctPins(t *testing.T) {
	a := core.CustomerID("Alice", 1234)
	b := core.CustomerID("Alice", 4321)
	if a == b {
		t.Fatal("distinct pins produced the same customer id")
	}
}
