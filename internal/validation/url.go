package validation

import (
	"net"
	"strings"
)

// IsPublicIP сообщает, что адрес не ведёт во внутреннюю сеть: loopback, частные диапазоны, link-local.
func IsPublicIP(ip net.IP) bool {
	if ip == nil {
		return false
	}
	return !(ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsInterfaceLocalMulticast() ||
		ip.IsMulticast() ||
		ip.IsUnspecified())
}

// IsPublicHost отклоняет localhost и IP-литералы внутренних сетей. Имена DNS не резолвятся.
func IsPublicHost(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if host == "" || host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return false
	}
	if ip := net.ParseIP(host); ip != nil {
		return IsPublicIP(ip)
	}
	return true
}
