// internal/view/uahelpers.go
//
// Template helpers.  UA helpers take the *requestinfo.RequestInfo stored by
// the Enrich middleware and tolerate nil, so pages render in tests without
// the middleware.
//
//	{{ browser .Req }} on {{ device .Req }}
//	{{ if isBot .Req }}…{{ end }}
package view

import (
	"html/template"

	"github.com/yanizio/profileform/internal/requestinfo"
)

// FuncMap returns every helper the engine injects.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"dict":     dict,
		"browser":  func(ri *requestinfo.RequestInfo) string { return uaOr(ri, func(u requestinfo.UA) string { return u.Browser }) },
		"device":   func(ri *requestinfo.RequestInfo) string { return uaOr(ri, func(u requestinfo.UA) string { return u.Device }) },
		"os":       func(ri *requestinfo.RequestInfo) string { return uaOr(ri, func(u requestinfo.UA) string { return u.OS }) },
		"platform": func(ri *requestinfo.RequestInfo) string { return uaOr(ri, func(u requestinfo.UA) string { return u.Platform }) },
		"lang":     func(ri *requestinfo.RequestInfo) string { return uaOr(ri, func(u requestinfo.UA) string { return u.PrimaryLang }) },
		"isBot":    func(ri *requestinfo.RequestInfo) bool { return ri != nil && ri.UA.IsBot },
	}
}

func uaOr(ri *requestinfo.RequestInfo, get func(requestinfo.UA) string) string {
	if ri == nil {
		return ""
	}
	return get(ri.UA)
}

// dict builds a map in templates: {{ dict "k" 1 "k2" "v" }}.
func dict(kv ...any) map[string]any {
	m := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		m[key] = kv[i+1]
	}
	return m
}
