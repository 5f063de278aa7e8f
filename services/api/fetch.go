package apisvc

import (
	"context"

	"github.com/Hoomanxj/eztutor/core"
	"github.com/Hoomanxj/eztutor/core/forms"
	"github.com/Hoomanxj/eztutor/core/notifier"
)

// default user facing texts
const (
	MsgNetworkError     = "Network error"
	MsgSomethingWrong   = "Something went wrong"
	MsgSomethingWrongDt = "Something went wrong."
)

const (
	Succeeded Outcome = iota
	Failed
	TransportFailed
)

type (
	Outcome int

	// Notifier receives the messages a call surfaces to the user.
	Notifier interface {
		Add(text, severity string) notifier.Message
	}

	// Policy says how an unsuccessful (`success: false`) answer is surfaced.
	Policy struct {
		Severity string
		Default  string
		Silent   bool
	}

	Call struct {
		Method string
		Path   string
		Query  Query
		Form   *forms.Form

		// Key names the payload field decoded into the result; blank decodes the whole body.
		Key string
		// StrictStatus turns every non-2xx answer into a transport failure.
		StrictStatus bool

		OnFailure Policy
		// Transport is the fallback text of transport failures, always shown as errors.
		Transport string
		// SuccessNotice, when set, shows the server message (or this text) on success.
		SuccessNotice string
	}

	Result[T any] struct {
		Data    T
		Message string
		Outcome Outcome
		Err     error
	}
)

func (o Outcome) String() string {
	switch o {
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case TransportFailed:
		return "transport failed"
	default:
		return "unknown"
	}
}

func (r Result[T]) OK() bool {
	return r.Outcome == Succeeded
}

// Fetch performs call, decodes its payload into T and notifies n of any failure
// according to the call's policy. Nothing is returned as a panic or a global error:
// the outcome tells the caller which path to take.
func Fetch[T any](ctx context.Context, c *Client, n Notifier, call Call) Result[T] {
	var res Result[T]

	env, err := c.Do(ctx, call)
	res.Message = env.Message
	if err == nil {
		if call.Key != "" {
			err = env.Decode(call.Key, &res.Data)
		} else {
			err = env.DecodeAll(&res.Data)
		}
		if err != nil {
			c.logger.Error("decoding payload: "+call.Path, err)
			err = core.NewTransportError(call.Method, call.Path, env.StatusCode, err)
		}
	}

	switch {
	case err == nil:
		res.Outcome = Succeeded
		if call.SuccessNotice != "" {
			n.Add(core.FirstNonEmpty(env.Message, call.SuccessNotice), notifier.Success)
		}
	case core.IsApp(err):
		res.Outcome = Failed
		res.Err = err
		if !call.OnFailure.Silent {
			severity := call.OnFailure.Severity
			if severity == "" {
				severity = notifier.Error
			}
			n.Add(core.FirstNonEmpty(env.Message, call.OnFailure.Default, MsgSomethingWrong), severity)
		}
	default:
		res.Outcome = TransportFailed
		res.Err = err
		n.Add(core.FirstNonEmpty(core.ErrorMessage(err), call.Transport, MsgNetworkError), notifier.Error)
	}
	return res
}
