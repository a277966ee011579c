package cart

import (
	"bytes"
	"encoding/json"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

// StorageKey is the durable record holding the cart.
const StorageKey = "cart-storage"

const recordVersion = 0

type record struct {
	State   *recordState `json:"state"`
	Version int          `json:"version"`
}

type recordState struct {
	Items []LineItem `json:"items"`
}

// Encode serializes items into the persisted record format.
func Encode(items []LineItem) ([]byte, error) {
	if items == nil {
		items = []LineItem{}
	}
	data, err := json.Marshal(record{State: &recordState{Items: items}, Version: recordVersion})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart record")
	}
	return data, nil
}

// Decode parses a persisted record and repairs it so that ids are unique and every
// quantity is positive. Malformed input yields a STORAGE_CORRUPTION error.
func Decode(data []byte) ([]LineItem, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStorageCorruption, "cart record is empty")
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorageCorruption, err, "decode cart record")
	}
	if rec.State == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStorageCorruption, "cart record has no state")
	}
	if rec.Version != recordVersion {
		return nil, pkgerrors.New(pkgerrors.CodeStorageCorruption, "unsupported cart record version").
			WithDetails(map[string]any{"version": rec.Version})
	}
	return repair(rec.State.Items), nil
}

// repair merges duplicate ids into the first occurrence and drops non-positive quantities.
func repair(items []LineItem) []LineItem {
	out := make([]LineItem, 0, len(items))
	index := make(map[int]int, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		if i, ok := index[item.ProductID]; ok {
			out[i].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(out)
		out = append(out, item)
	}
	return out
}
