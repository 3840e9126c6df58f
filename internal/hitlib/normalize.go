package hitlib

/*
domhits — aggregate domain hit counts from access logs
Copyright (C) 2025  Pepijn van der Stap <rxtls@vanderstap.info>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

import (
	"fmt"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Normalizer reduces a raw domain token to the key it is aggregated under.
type Normalizer func(domain string) (string, error)

// Normalizer names accepted by NormalizerByName.
const (
	NormalizerLabels       = "labels"
	NormalizerPublicSuffix = "psl"
)

// NormalizerByName resolves a normalizer from its configuration name.
func NormalizerByName(name string) (Normalizer, error) {
	switch name {
	case "", NormalizerLabels:
		return NormalizeDomain, nil
	case NormalizerPublicSuffix:
		return NormalizePublicSuffix, nil
	default:
		return nil, fmt.Errorf("unknown normalizer %q (want %q or %q)", name, NormalizerLabels, NormalizerPublicSuffix)
	}
}

// NormalizeDomain reduces a domain to its last two labels, or its last three
// when the second-level label is "co" or "com" (example.co.uk, bar.com.au).
// Leading and trailing '*' wildcard markers are stripped first. Case is kept.
//
// Domains that leave fewer than two labels, or an empty label among the kept
// ones (".com", "a..com"), yield an *InvalidDomainError.
func NormalizeDomain(domain string) (string, error) {
	labels := strings.Split(strings.Trim(domain, "*"), ".")
	if len(labels) < 2 {
		return "", &InvalidDomainError{Domain: domain, Reason: "fewer than 2 labels"}
	}

	keep := 2
	if len(labels) > 2 {
		if sld := labels[len(labels)-2]; sld == "co" || sld == "com" {
			keep = 3
		}
	}
	kept := labels[len(labels)-keep:]
	for _, label := range kept {
		if label == "" {
			return "", &InvalidDomainError{Domain: domain, Reason: "empty label"}
		}
	}
	return strings.Join(kept, "."), nil
}

// NormalizePublicSuffix reduces a domain to its registrable form (eTLD+1)
// according to the public suffix list. Wildcard markers and surrounding dots
// are stripped and the result is lowercased, as the list is.
func NormalizePublicSuffix(domain string) (string, error) {
	host := strings.ToLower(strings.Trim(domain, "*."))
	if host == "" {
		return "", &InvalidDomainError{Domain: domain, Reason: "empty host"}
	}
	etld1, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return "", &InvalidDomainError{Domain: domain, Err: err}
	}
	return etld1, nil
}
