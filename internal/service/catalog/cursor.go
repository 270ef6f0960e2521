package catalog

import (
	"encoding/base64"
	"strconv"
)

// Курсор — это непрозрачный для клиента base64 от последнего выданного id.
// Клиент не должен разбирать или склеивать курсоры сам.

func encodeCursor(id int64) string {
	return base64.StdEncoding.EncodeToString([]byte(strconv.FormatInt(id, 10)))
}

// decodeCursor возвращает id и признак валидности. Непригодный курсор
// трактуется как его отсутствие.
func decodeCursor(cursor string) (int64, bool) {
	if cursor == "" {
		return 0, false
	}
	raw, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return 0, false
	}
	id, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}
