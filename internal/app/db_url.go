package app

import (
	"net/url"
	"strings"
)

const preparedBinaryResultParam = "disable_prepared_binary_result"

// withPreparedBinaryResultDisabled sets lib/pq's disable_prepared_binary_result
// on either DSN form unless the DSN already sets it.
func withPreparedBinaryResultDisabled(dsn string, disable bool) string {
	if !disable {
		return dsn
	}

	if u, ok := parseDSNURL(dsn); ok {
		query := u.Query()
		if query.Get(preparedBinaryResultParam) != "" {
			return dsn
		}
		query.Set(preparedBinaryResultParam, "yes")
		u.RawQuery = query.Encode()
		return u.String()
	}

	if _, ok := keywordDSNValue(dsn, preparedBinaryResultParam); ok {
		return dsn
	}
	return strings.TrimSpace(dsn) + " " + preparedBinaryResultParam + "=yes"
}

// databaseName feeds the db.name span attribute. Unknown forms yield "".
func databaseName(dsn string) string {
	if u, ok := parseDSNURL(dsn); ok {
		return strings.TrimSpace(strings.TrimPrefix(u.Path, "/"))
	}
	name, _ := keywordDSNValue(dsn, "dbname")
	return name
}

func parseDSNURL(dsn string) (*url.URL, bool) {
	dsn = strings.TrimSpace(dsn)
	if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
		return nil, false
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return nil, false
	}
	return u, true
}

func keywordDSNValue(dsn, key string) (string, bool) {
	for _, field := range strings.Fields(dsn) {
		k, v, ok := strings.Cut(field, "=")
		if !ok || k != key {
			continue
		}
		return strings.Trim(v, `"'`), true
	}
	return "", false
}
