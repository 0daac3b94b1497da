package algorand

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// WriteJSONL writes one JSON object per line.
func WriteJSONL(w io.Writer, txns []AccountTransaction) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for _, txn := range txns {
		if err := enc.Encode(txn); err != nil {
			return fmt.Errorf("encode transaction %s: %w", txn.ID, err)
		}
	}
	return bw.Flush()
}

// ReadJSONL reads transactions written by WriteJSONL. Blank lines are skipped.
func ReadJSONL(r io.Reader) ([]AccountTransaction, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	var txns []AccountTransaction
	line := 0
	for scanner.Scan() {
		line++
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}
		var txn AccountTransaction
		if err := json.Unmarshal(data, &txn); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		txns = append(txns, txn)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return txns, nil
}
