package apperr

import (
	"context"
	"strings"
)

type Lang string

const (
	English Lang = "en"
	Arabic  Lang = "ar"
)

type langKey struct{}

// ParseLang picks the first supported language in an Accept-Language value.
func ParseLang(header string) Lang {
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		primary := strings.ToLower(strings.SplitN(tag, "-", 2)[0])
		switch Lang(primary) {
		case Arabic:
			return Arabic
		case English:
			return English
		}
	}
	return English
}

func WithLang(ctx context.Context, l Lang) context.Context {
	return context.WithValue(ctx, langKey{}, l)
}

func LangFromContext(ctx context.Context) Lang {
	if l, ok := ctx.Value(langKey{}).(Lang); ok {
		return l
	}
	return English
}
