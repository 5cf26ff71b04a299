// Package kafkax — общие помощники для адресов Kafka.
package kafkax

import (
	"net/url"
	"strings"
)

// ParseBrokers — trim, отбрасывает пустые элементы и схему вида "PLAINTEXT://".
// Элементы могут сами содержать списки через запятую.
func ParseBrokers(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		for _, part := range strings.Split(item, ",") {
			addr := strings.TrimSpace(part)
			if addr == "" {
				continue
			}
			if strings.Contains(addr, "://") {
				if u, err := url.Parse(addr); err == nil && u.Host != "" {
					addr = u.Host
				}
			}
			out = append(out, addr)
		}
	}
	return out
}
