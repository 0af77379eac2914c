package core

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// auxDataRecord is the on-the-wire shape of a FileAuxData record, stored in
// the aux logs as JSON — the same plain-JSON choice the original makes for
// this record (serde_json), carried straight across rather than reaching
// for a binary codec this repo has no other use for.
type auxDataRecord struct {
	ContentSha256 string `json:"content_sha256"`
}

func encodeAuxData(a FileAuxData) ([]byte, error) {
	return json.Marshal(auxDataRecord{ContentSha256: hex.EncodeToString(a.ContentSha256[:])})
}

func decodeAuxData(raw []byte) (FileAuxData, error) {
	var rec auxDataRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return FileAuxData{}, fmt.Errorf("decode aux data: %w", err)
	}
	b, err := hex.DecodeString(rec.ContentSha256)
	if err != nil || len(b) != 32 {
		return FileAuxData{}, fmt.Errorf("decode aux data: invalid content_sha256")
	}
	var sha Sha256
	copy(sha[:], b)
	return FileAuxData{ContentSha256: sha}, nil
}
