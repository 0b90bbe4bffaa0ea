package iso

import (
	"fmt"

	"github.com/finbridge/lps-adaptor/internal/interfaces"
)

// originalData is the decoded "original data elements" subfield of a reversal
// advice: the MTI, STAN and transmission date/time of the message being
// reversed, plus the acquiring and (dialect-dependent) forwarding institution
// ids.
type originalData struct {
	mti         string
	stan        string
	dateTime    string
	acquirerID  string
	forwarderID string
}

const (
	odeMTILen      = 4
	odeStanLen     = 6
	odeDateTimeLen = 10
	odeInstLen     = 11
)

// parseOriginalData splits the contiguous subfield. Layout: 4-digit MTI,
// 6-digit STAN, 10-digit date/time, 11-digit acquiring id, and an 11-digit
// forwarding id when the dialect carries one.
func parseOriginalData(raw string, hasForwarder bool) (*originalData, error) {
	want := odeMTILen + odeStanLen + odeDateTimeLen + odeInstLen
	if hasForwarder {
		want += odeInstLen
	}
	if len(raw) < want {
		return nil, fmt.Errorf("original data elements too short: %d < %d", len(raw), want)
	}

	o := &originalData{}
	pos := 0
	next := func(n int) string {
		s := raw[pos : pos+n]
		pos += n
		return s
	}
	o.mti = next(odeMTILen)
	o.stan = next(odeStanLen)
	o.dateTime = next(odeDateTimeLen)
	o.acquirerID = stripInstitutionID(next(odeInstLen))
	if hasForwarder {
		o.forwarderID = stripInstitutionID(next(odeInstLen))
	}
	return o, nil
}

// criteria converts the parsed subfield into the audit-log match. A stripped
// institution id that came out empty was all zeros on the wire and is left
// out of the match.
func (o *originalData) criteria() interfaces.ReversalMatchCriteria {
	return interfaces.ReversalMatchCriteria{
		MTI:         o.mti,
		Stan:        o.stan,
		Date:        o.dateTime,
		AcquirerID:  o.acquirerID,
		ForwarderID: o.forwarderID,
	}
}
