package infra

import (
	"fmt"
	"strings"

	"github.com/seancfoley/ipaddress-go/ipaddr"
)

// TrustedProxies é a lista de IPs/CIDRs cujo X-Forwarded-For é aceito.
// Usa tries por família para casar blocos inteiros.
type TrustedProxies struct {
	v4      *ipaddr.IPv4AddressTrie
	v6      *ipaddr.IPv6AddressTrie
	entries int
}

// ParseTrustedProxies aceita IPs ou CIDRs; itens vazios são ignorados.
func ParseTrustedProxies(list []string) (*TrustedProxies, error) {
	tp := &TrustedProxies{
		v4: &ipaddr.IPv4AddressTrie{},
		v6: &ipaddr.IPv6AddressTrie{},
	}

	for _, raw := range list {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		addr, err := ipaddr.NewIPAddressString(s).ToAddress()
		if err != nil || addr == nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %v", s, err)
		}

		block := addr.ToPrefixBlock()
		switch {
		case block.IsIPv4():
			tp.v4.Add(block.ToIPv4())
		case block.IsIPv6():
			tp.v6.Add(block.ToIPv6())
		default:
			return nil, fmt.Errorf("invalid trusted proxy %q: unsupported address family", s)
		}
		tp.entries++
	}
	return tp, nil
}

// Len é o número de entradas aceitas.
func (tp *TrustedProxies) Len() int {
	if tp == nil {
		return 0
	}
	return tp.entries
}

// Contains diz se o IP (sem porta) pertence a algum bloco confiável.
func (tp *TrustedProxies) Contains(ip string) bool {
	if tp == nil || ip == "" {
		return false
	}
	addr, err := ipaddr.NewIPAddressString(ip).ToAddress()
	if err != nil || addr == nil {
		return false
	}
	if addr.IsIPv4() {
		return tp.v4.ElementContains(addr.ToIPv4())
	}
	if addr.IsIPv6() {
		return tp.v6.ElementContains(addr.ToIPv6())
	}
	return false
}
