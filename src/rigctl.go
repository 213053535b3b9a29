package rigptt

/*------------------------------------------------------------------
 *
 * Purpose:	Just enough of the hamlib rigctld text protocol for a
 *		client that only wants to key the transmitter.
 *
 * Description:	One request per line, matched exactly.  Everything we
 *		don't know gets a bare newline.  Frequency, mode and VFO
 *		are fixed answers; there is no rig behind them.
 *
 *---------------------------------------------------------------*/

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Capability block returned for \dump_state.  Protocol version 0,
// model 1, ITU region 2, followed by ranges, tuning steps, filters
// and the get/set capability masks.
var dumpState = strings.Join([]string{
	"0",
	"1",
	"2",
	"150000.000000 1500000000.000000 0x1ff -1 -1 0x10000003 0x3",
	"0 0 0 0 0 0 0",
	"0 0 0 0 0 0 0",
	"0x1ff 1",
	"0x1ff 0",
	"0 0",
	"0x1e 2400",
	"0x2 500",
	"0x1 8000",
	"0x1 2400",
	"0x20 15000",
	"0x20 8000",
	"0x40 230000",
	"0 0",
	"9990",
	"9990",
	"10000",
	"0",
	"10 ",
	"10 20 30 ",
	"0xffffffff",
	"0xffffffff",
	"0xf7ffffff",
	"0x83ffffff",
	"0xffffffff",
	"0xffffffbf",
	"",
}, "\n")

const (
	replyVFO       = "VFOA\n"
	replyFrequency = "145000000\n"
	replyMode      = "USB\n15000\n"
	replyNack      = "\n"

	// hamlib status codes: RIG_OK, -RIG_EINVAL, -RIG_EIO.
	replyOK      = "RPRT 0\n"
	replyInvalid = "RPRT -1\n"
	replyIOError = "RPRT -6\n"
)

var ErrMalformedCommand = errors.New("malformed command")

// AckPolicy decides what a set-PTT request reports back.
type AckPolicy int

const (
	// AckFireAndForget always answers RPRT 0.  A failed line write is
	// only visible in our own logs.  This is what existing clients expect.
	AckFireAndForget AckPolicy = iota
	// AckReportErrors answers RPRT -6 when the line write failed.
	AckReportErrors
)

func (p AckPolicy) String() string {
	switch p {
	case AckFireAndForget:
		return "fire-and-forget"
	case AckReportErrors:
		return "report-errors"
	default:
		return "AckPolicy(" + strconv.Itoa(int(p)) + ")"
	}
}

func ParseAckPolicy(s string) (AckPolicy, error) {
	switch s {
	case "", "fire-and-forget":
		return AckFireAndForget, nil
	case "report-errors":
		return AckReportErrors, nil
	default:
		return AckFireAndForget, fmt.Errorf("unknown ack policy %q", s)
	}
}

type Rigctl struct {
	ptt PTT
	ack AckPolicy
}

func NewRigctl(ptt PTT, ack AckPolicy) *Rigctl {
	return &Rigctl{ptt: ptt, ack: ack}
}

// Execute answers one request, given without its trailing newline.
// The reply is always meant to be sent; a non-nil error is only for
// the caller's log.
func (r *Rigctl) Execute(cmd string) (string, error) {
	switch cmd {
	case `\dump_state`:
		return dumpState, nil
	case "v":
		return replyVFO, nil
	case "t":
		if r.ptt.GetPTT() {
			return "1\n", nil
		}

		return "0\n", nil
	case "f":
		return replyFrequency, nil
	case "m":
		return replyMode, nil
	}

	if arg, ok := strings.CutPrefix(cmd, "T "); ok {
		return r.setPTT(arg)
	}

	return replyNack, nil
}

func (r *Rigctl) setPTT(arg string) (string, error) {
	var fields = strings.Fields(arg)
	if len(fields) == 0 {
		return replyInvalid, fmt.Errorf("%w: T without a value", ErrMalformedCommand)
	}

	var n, err = strconv.Atoi(fields[0])
	if err != nil {
		return replyInvalid, fmt.Errorf("%w: T %q: %w", ErrMalformedCommand, fields[0], err)
	}

	var setErr = r.ptt.SetPTT(n != 0)
	if setErr != nil && r.ack == AckReportErrors {
		return replyIOError, setErr
	}

	return replyOK, setErr
}
