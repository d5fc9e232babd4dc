package main

import (
	"btreeindex/btree"

	"github.com/cockroachdb/errors"
	"github.com/go-faker/faker/v4"
)

// seedTree inserts up to records random keys drawn from [0, maxKey] and returns
// how many were actually added.
func seedTree(tree *btree.BTree[int], records, maxKey int) (int, error) {
	if records == 0 {
		return 0, nil
	}
	keys, err := faker.RandomInt(0, maxKey, records)
	if err != nil {
		return 0, errors.Wrap(err, "generate seed keys")
	}
	inserted := 0
	for _, k := range keys {
		if tree.Insert(k) {
			inserted++
		}
	}
	return inserted, nil
}
