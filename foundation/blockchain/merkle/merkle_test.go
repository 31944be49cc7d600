package merkle_test

import (
	"testing"

	"github.com/jolovicdev/kaidos/foundation/blockchain/merkle"
	"github.com/jolovicdev/kaidos/foundation/blockchain/signature"
)

func txid(s string) string {
	return signature.HashBytes([]byte(s))
}

func Test_SingleLeafRootEqualsLeaf(t *testing.T) {
	leaf := txid("only-tx")

	tree, err := merkle.New([]string{leaf})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if tree.Root() != leaf {
		t.Fatalf("got root %s, exp %s", tree.Root(), leaf)
	}
}

func Test_OddCountDuplicatesLastLeaf(t *testing.T) {
	a, b, c := txid("a"), txid("b"), txid("c")

	odd, err := merkle.New([]string{a, b, c})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	even, err := merkle.New([]string{a, b, c, c})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if odd.Root() != even.Root() {
		t.Fatalf("expected duplicated-last-leaf root to match explicit duplicate, got %s vs %s", odd.Root(), even.Root())
	}
}

func Test_EmptyTreeRejected(t *testing.T) {
	if _, err := merkle.New(nil); err == nil {
		t.Fatal("expected an error building a tree with no leaves")
	}
}

func Test_ProofVerifiesForEveryLeaf(t *testing.T) {
	leaves := []string{txid("a"), txid("b"), txid("c"), txid("d"), txid("e")}

	tree, err := merkle.New(leaves)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	for i, leaf := range leaves {
		proof, err := tree.Proof(i)
		if err != nil {
			t.Fatalf("leaf %d: unexpected error: %s", i, err)
		}

		if err := merkle.Verify(tree.Root(), leaf, proof); err != nil {
			t.Fatalf("leaf %d: proof did not verify: %s", i, err)
		}
	}
}

func Test_TamperedLeafFailsVerify(t *testing.T) {
	leaves := []string{txid("a"), txid("b"), txid("c"), txid("d")}

	tree, err := merkle.New(leaves)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	proof, err := tree.Proof(1)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if err := merkle.Verify(tree.Root(), txid("tampered"), proof); err == nil {
		t.Fatal("expected verification to fail for a tampered leaf")
	}
}
