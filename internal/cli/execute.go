package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/crmarques/mgmtbridge/config"
	"github.com/crmarques/mgmtbridge/faults"
	"github.com/crmarques/mgmtbridge/internal/cli/common"
)

type Dependencies struct {
	Contexts        config.ContextService
	OpenRuntime     common.RuntimeFactory
	OpenCredentials common.CredentialFactory
	Metrics         prometheus.Gatherer
}

func (d Dependencies) commandDependencies() common.CommandDependencies {
	return common.CommandDependencies{
		Contexts:        d.Contexts,
		OpenRuntime:     d.OpenRuntime,
		OpenCredentials: d.OpenCredentials,
		Metrics:         d.Metrics,
	}
}

func Execute(deps Dependencies) error {
	return execute(NewRootCommand(deps), deps, os.Args[1:])
}

func execute(root *cobra.Command, deps Dependencies, args []string) error {
	root.SetArgs(args)
	command, err := root.ExecuteC()

	if dump, _ := root.PersistentFlags().GetBool("metrics"); dump {
		if metricsErr := writeMetrics(root.ErrOrStderr(), deps.Metrics); metricsErr != nil && err == nil {
			err = metricsErr
		}
	}

	if !emitsStatus(args, command) {
		if err != nil {
			_, _ = fmt.Fprintln(root.ErrOrStderr(), strings.TrimSpace(err.Error()))
		}
		return err
	}

	status := newStatusLine(root.ErrOrStderr(), args)
	if err != nil {
		status.failed(err)
		return err
	}
	status.ok()
	return nil
}

// ExitCodeForError maps error categories onto process exit codes; errors
// without a category exit with 1.
func ExitCodeForError(err error) int {
	if err == nil {
		return 0
	}

	var typedErr *faults.TypedError
	if !errors.As(err, &typedErr) {
		return 1
	}

	switch typedErr.Category {
	case faults.ValidationError, faults.AddressArityError:
		return 2
	case faults.NotFoundError:
		return 3
	case faults.AuthError:
		return 4
	case faults.RemoteOperationFailure:
		return 5
	case faults.TransportError:
		return 6
	case faults.ConfigurationError:
		return 7
	case faults.DecodeTypeError:
		return 8
	default:
		return 1
	}
}

// writeMetrics dumps the gathered dispatch metrics in the Prometheus text
// format.
func writeMetrics(w io.Writer, gatherer prometheus.Gatherer) error {
	if gatherer == nil {
		return nil
	}
	families, err := gatherer.Gather()
	if err != nil {
		return err
	}
	encoder := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, family := range families {
		if err := encoder.Encode(family); err != nil {
			return err
		}
	}
	return nil
}
