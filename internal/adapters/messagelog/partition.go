package messagelog

import (
	"time"
)

const partitionLayout = "20060102"

// PartitionKey nome da partição diária (data UTC).
func PartitionKey(t time.Time) string {
	return t.UTC().Format(partitionLayout)
}

// ParsePartitionKey aceita YYYYMMDD ou YYYY-MM-DD.
func ParsePartitionKey(raw string) (time.Time, error) {
	if t, err := time.Parse(partitionLayout, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, raw)
}
