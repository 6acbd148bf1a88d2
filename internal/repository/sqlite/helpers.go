package sqlite

import "strings"

func nullableText(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}

func nullableInt(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}
