package shared

import (
	"golang.org/x/text/language"
)

// Supported response languages. English is the fallback; Vietnamese covers
// the crewing agencies the platform was originally built for.
var supported = []language.Tag{
	language.English,
	language.Vietnamese,
}

var matcher = language.NewMatcher(supported)

var errorTitles = map[language.Tag]map[string]string{
	language.English: {
		"not_found":    "Not Found",
		"conflict":     "Conflict",
		"forbidden":    "Forbidden",
		"unauthorized": "Unauthorized",
		"bad_request":  "Bad Request",
		"internal":     "Internal Server Error",
	},
	language.Vietnamese: {
		"not_found":    "Không tìm thấy",
		"conflict":     "Xung đột dữ liệu",
		"forbidden":    "Không có quyền truy cập",
		"unauthorized": "Chưa xác thực",
		"bad_request":  "Yêu cầu không hợp lệ",
		"internal":     "Lỗi hệ thống",
	},
}

// ErrorTitle resolves a localized error title for the Accept-Language header.
func ErrorTitle(acceptLanguage, key string) string {
	tag, _ := language.MatchStrings(matcher, acceptLanguage)
	// MatchStrings returns the best supported tag; collapse regional
	// variants back onto the base catalog entry.
	base, _ := tag.Base()
	for _, candidate := range supported {
		cb, _ := candidate.Base()
		if cb == base {
			if title, ok := errorTitles[candidate][key]; ok {
				return title
			}
		}
	}
	if title, ok := errorTitles[language.English][key]; ok {
		return title
	}
	return key
}
