package storage

import (
	"fmt"
	"net/url"
	"strings"
)

// OriginPolicy пропускает только ссылки с origin, которые выдаёт хранилище.
// Шаблон вида "https://*.s3.eu-central-1.amazonaws.com" разрешает любой поддомен.
type OriginPolicy struct {
	origins []allowedOrigin
}

type allowedOrigin struct {
	scheme string
	host   string // для шаблона: суффикс, начинающийся с точки
	suffix bool
}

func NewOriginPolicy(origins ...string) (*OriginPolicy, error) {
	p := &OriginPolicy{}
	for _, raw := range origins {
		u, err := url.Parse(strings.TrimSpace(raw))
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("storage: некорректный адрес хранилища %q", raw)
		}
		o := allowedOrigin{scheme: strings.ToLower(u.Scheme), host: strings.ToLower(u.Host)}
		if strings.HasPrefix(o.host, "*.") {
			o.host, o.suffix = o.host[1:], true
		}
		p.origins = append(p.origins, o)
	}
	if len(p.origins) == 0 {
		return nil, fmt.Errorf("storage: не задан ни один адрес хранилища")
	}
	return p, nil
}

// Allows сообщает, выдана ли ссылка этим хранилищем.
func (p *OriginPolicy) Allows(u *url.URL) bool {
	scheme, host := strings.ToLower(u.Scheme), strings.ToLower(u.Host)
	for _, o := range p.origins {
		if scheme != o.scheme {
			continue
		}
		if o.suffix {
			if len(host) > len(o.host) && strings.HasSuffix(host, o.host) {
				return true
			}
			continue
		}
		if host == o.host {
			return true
		}
	}
	return false
}
