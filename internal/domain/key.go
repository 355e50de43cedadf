package domain

import (
	"fmt"
	"strings"
)

const (
	KeyAlphabet  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	KeyGroups    = 4
	KeyGroupSize = 4
	KeySeparator = '-'
)

// ActivationKey is formatted as XXXX-XXXX-XXXX-XXXX over KeyAlphabet.
type ActivationKey string

func ParseActivationKey(s string) (ActivationKey, error) {
	groups := strings.Split(s, string(KeySeparator))
	if len(groups) != KeyGroups {
		return "", fmt.Errorf("activation key[%s]: want %d groups, got %d", s, KeyGroups, len(groups))
	}

	for _, g := range groups {
		if len(g) != KeyGroupSize {
			return "", fmt.Errorf("activation key[%s]: group[%s] has length %d", s, g, len(g))
		}
		for _, r := range g {
			if !strings.ContainsRune(KeyAlphabet, r) {
				return "", fmt.Errorf("activation key[%s]: invalid symbol %q", s, r)
			}
		}
	}

	return ActivationKey(s), nil
}

func (k ActivationKey) String() string {
	return string(k)
}
