package dispatch

import (
	"fmt"

	"github.com/crmarques/mgmtbridge/faults"
	"github.com/crmarques/mgmtbridge/tree"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
)

const (
	keyOutcome            = "outcome"
	keyResult             = "result"
	keyFailureDescription = "failure-description"
	keyResponseHeaders    = "response-headers"
)

// Response is a decoded response tree.
type Response struct {
	Outcome            string
	Result             tree.Node
	FailureDescription string
	Headers            tree.Node
}

func SuccessResponse(result tree.Node) Response {
	return Response{Outcome: OutcomeSuccess, Result: result}
}

func FailureResponse(description string) Response {
	return Response{Outcome: OutcomeFailed, FailureDescription: description}
}

// ParseResponse reads outcome, result, failure-description and
// response-headers. A failure description that is not a string is kept in
// its JSON form.
func ParseResponse(node tree.Node) (Response, error) {
	if node.Kind() != tree.Object {
		return Response{}, faults.NewTypedError(
			faults.DecodeTypeError,
			fmt.Sprintf("response must be an object, got %s", node.Kind()),
			nil,
		)
	}

	outcome, _ := node.Get(keyOutcome).AsString()
	response := Response{
		Outcome: outcome,
		Result:  node.Get(keyResult),
		Headers: node.Get(keyResponseHeaders),
	}

	description := node.Get(keyFailureDescription)
	if text, ok := description.AsString(); ok {
		response.FailureDescription = text
	} else if description.IsDefined() {
		response.FailureDescription = description.String()
	}
	return response, nil
}

// Node encodes the response tree.
func (r Response) Node() tree.Node {
	node := tree.NewObject()
	node.Set(keyOutcome, tree.StringValue(r.Outcome))
	if r.Result.IsDefined() {
		node.Set(keyResult, r.Result)
	}
	if r.FailureDescription != "" {
		node.Set(keyFailureDescription, tree.StringValue(r.FailureDescription))
	}
	if r.Headers.Len() > 0 {
		node.Set(keyResponseHeaders, r.Headers)
	}
	return node
}

// Outcome is the verdict of a response.
type Outcome struct {
	Success     bool
	Description string
	Headers     tree.Node
}

// Interpret succeeds only on the exact outcome "success". Any other value,
// including a differently cased one, is a failure.
func Interpret(response Response) Outcome {
	if response.Outcome == OutcomeSuccess {
		return Outcome{Success: true, Headers: response.Headers}
	}

	description := response.FailureDescription
	if description == "" {
		description = fmt.Sprintf("operation outcome %q", response.Outcome)
	}
	return Outcome{Description: description, Headers: response.Headers}
}

// Err returns a RemoteOperationFailure for a failed outcome, nil otherwise.
func (o Outcome) Err() error {
	if o.Success {
		return nil
	}
	return faults.NewTypedError(faults.RemoteOperationFailure, o.Description, nil)
}
