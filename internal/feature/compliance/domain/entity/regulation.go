// Package entity defines the domain model for the compliance feature.
package entity

import (
	"fmt"
	"strings"
)

// RegulationCode identifies a regulatory framework (GDPR, NIST, ...).
type RegulationCode string

const (
	RegulationGDPR     RegulationCode = "GDPR"
	RegulationNIST     RegulationCode = "NIST"
	RegulationHIPAA    RegulationCode = "HIPAA"
	RegulationISO27001 RegulationCode = "ISO27001"
)

// SupportedRegulations is the allow-list enforced at the operation boundary.
var SupportedRegulations = []RegulationCode{
	RegulationGDPR,
	RegulationNIST,
	RegulationHIPAA,
	RegulationISO27001,
}

// Regulation is a catalogue entry for a regulatory framework.
type Regulation struct {
	Code         RegulationCode
	Name         string
	Description  string
	Requirements string // opaque requirements text handed to the analysis prompt
}

// NormalizeRegulationCode uppercases and trims a raw code without validating it.
func NormalizeRegulationCode(raw string) RegulationCode {
	return RegulationCode(strings.ToUpper(strings.TrimSpace(raw)))
}

// ParseRegulationCode normalizes raw and checks it against SupportedRegulations.
func ParseRegulationCode(raw string) (RegulationCode, error) {
	code := NormalizeRegulationCode(raw)
	for _, c := range SupportedRegulations {
		if c == code {
			return code, nil
		}
	}
	return "", fmt.Errorf("invalid regulation type. Must be one of: %s", SupportedRegulationList())
}

// SupportedRegulationList renders the allow-list as "GDPR, NIST, HIPAA, ISO27001".
func SupportedRegulationList() string {
	codes := make([]string, len(SupportedRegulations))
	for i, c := range SupportedRegulations {
		codes[i] = string(c)
	}
	return strings.Join(codes, ", ")
}
