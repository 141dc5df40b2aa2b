package dispatch

import (
	"context"
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/crmarques/mgmtbridge/address"
	"github.com/crmarques/mgmtbridge/faults"
	"github.com/crmarques/mgmtbridge/operation"
)

// Root resource attributes describing the endpoint.
const (
	AttrManagementMajorVersion = "management-major-version"
	AttrManagementMinorVersion = "management-minor-version"
	AttrManagementMicroVersion = "management-micro-version"
	AttrReleaseVersion         = "release-version"
	AttrProductName            = "product-name"
)

type ServerVersion struct {
	Management *semver.Version
	Release    string
	Product    string
}

// ReadVersion reads the root resource and assembles the management API
// version. Minor and micro default to zero when absent.
func ReadVersion(ctx context.Context, dispatcher Dispatcher) (ServerVersion, error) {
	op := operation.Single(operation.Step{Address: address.Address{}, Name: operation.ReadResource})
	response, err := dispatcher.Execute(ctx, op)
	if err != nil {
		return ServerVersion{}, err
	}
	if outcome := Interpret(response); !outcome.Success {
		return ServerVersion{}, outcome.Err()
	}

	major, ok := response.Result.Get(AttrManagementMajorVersion).AsInt()
	if !ok || major < 0 {
		return ServerVersion{}, faults.NewTypedError(
			faults.DecodeTypeError,
			fmt.Sprintf("root resource has no usable %s attribute", AttrManagementMajorVersion),
			nil,
		)
	}
	minor, _ := response.Result.Get(AttrManagementMinorVersion).AsInt()
	micro, _ := response.Result.Get(AttrManagementMicroVersion).AsInt()

	release, _ := response.Result.Get(AttrReleaseVersion).AsString()
	product, _ := response.Result.Get(AttrProductName).AsString()
	return ServerVersion{
		Management: semver.New(uint64(major), uint64(max(minor, 0)), uint64(max(micro, 0)), "", ""),
		Release:    release,
		Product:    product,
	}, nil
}

// CheckVersion verifies the management version against a semver
// constraint. An empty constraint accepts every version.
func CheckVersion(version ServerVersion, constraint string) error {
	if constraint == "" {
		return nil
	}
	if version.Management == nil {
		return faults.NewTypedError(faults.ValidationError, "management version is unknown", nil)
	}

	parsed, err := semver.NewConstraint(constraint)
	if err != nil {
		return faults.NewTypedError(faults.ConfigurationError, fmt.Sprintf("invalid version constraint %q", constraint), err)
	}
	if !parsed.Check(version.Management) {
		return faults.NewTypedError(
			faults.ValidationError,
			fmt.Sprintf("management version %s does not satisfy %q", version.Management, constraint),
			nil,
		)
	}
	return nil
}
