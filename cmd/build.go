package cmd

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/damon-houk/anvil-basic-tx/internal/domain/entity"
	"github.com/damon-houk/anvil-basic-tx/internal/infrastructure/middleware"
)

const (
	changeAddressFlag   = "change-address"
	receiverAddressFlag = "receiver-address"
	lovelaceFlag        = "lovelace"
	outputFlag          = "output"
	messageFlag         = "message"
	utxoFlag            = "utxo"
)

func newBuildCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a transfer transaction and print the service's JSON answer",
		Example: `  basictx build
  basictx build --lovelace 2500000
  basictx build --output addr_test1...:1000000 --output addr_test1...:2000000
  basictx build --message "Paid with basictx" --utxo 8282...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBuild(cmd)
		},
	}

	addBuildFlags(cmd)
	return cmd
}

// addBuildFlags is shared by the root command and build, since a bare basictx builds too
func addBuildFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String(changeAddressFlag, "", "address receiving the change (tx.change_address)")
	flags.String(receiverAddressFlag, "", "address receiving the payment (tx.receiver_address)")
	flags.Uint64(lovelaceFlag, 0, "amount to send in lovelace (tx.lovelace)")
	flags.StringArray(outputFlag, nil, "explicit output as address:lovelace; repeatable, replaces the single receiver")
	flags.String(messageFlag, "", "message attached to the transaction metadata")
	flags.StringArray(utxoFlag, nil, "hex-encoded UTxO the service may spend; repeatable")
}

func (a *app) runBuild(cmd *cobra.Command) error {
	req, err := a.buildRequest(cmd)
	if err != nil {
		return err
	}

	svc, closeFn, err := a.newService()
	if err != nil {
		return err
	}
	defer closeFn()

	ctx := middleware.WithRequestID(cmd.Context(), middleware.NewRequestID())

	result, err := svc.Build(ctx, req)
	if err != nil {
		return err
	}

	return svc.Render(a.stdout, result)
}

// buildRequest starts from the configured transfer and applies the command's flags
func (a *app) buildRequest(cmd *cobra.Command) (*entity.BuildRequest, error) {
	tx := a.cfg.Tx
	flags := cmd.Flags()

	var err error
	if flags.Changed(changeAddressFlag) {
		if tx.ChangeAddress, err = flags.GetString(changeAddressFlag); err != nil {
			return nil, err
		}
	}
	if flags.Changed(receiverAddressFlag) {
		if tx.ReceiverAddress, err = flags.GetString(receiverAddressFlag); err != nil {
			return nil, err
		}
	}
	if flags.Changed(lovelaceFlag) {
		if tx.Lovelace, err = flags.GetUint64(lovelaceFlag); err != nil {
			return nil, err
		}
	}

	outputs, err := requestOutputs(cmd, tx.ReceiverAddress, tx.Lovelace)
	if err != nil {
		return nil, err
	}

	req := entity.NewBuildRequest(tx.ChangeAddress, outputs...)

	if req.Message, err = flags.GetString(messageFlag); err != nil {
		return nil, err
	}
	if req.Utxos, err = flags.GetStringArray(utxoFlag); err != nil {
		return nil, err
	}
	if len(req.Utxos) == 0 {
		req.Utxos = nil
	}

	return req, nil
}

// requestOutputs returns the --output list, or the single configured receiver when none is given
func requestOutputs(cmd *cobra.Command, receiver string, lovelace uint64) ([]entity.Output, error) {
	flags := cmd.Flags()

	rawOutputs, err := flags.GetStringArray(outputFlag)
	if err != nil {
		return nil, err
	}

	if len(rawOutputs) == 0 {
		return []entity.Output{{Address: receiver, Lovelace: lovelace}}, nil
	}

	if flags.Changed(receiverAddressFlag) || flags.Changed(lovelaceFlag) {
		return nil, errors.Errorf("--%s cannot be combined with --%s or --%s",
			outputFlag, receiverAddressFlag, lovelaceFlag)
	}

	outputs := make([]entity.Output, 0, len(rawOutputs))
	for _, raw := range rawOutputs {
		o, err := parseOutput(raw)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, o)
	}

	return outputs, nil
}

// parseOutput reads "address:lovelace". Bech32 addresses never contain ':'.
func parseOutput(raw string) (entity.Output, error) {
	i := strings.LastIndex(raw, ":")
	if i <= 0 || i == len(raw)-1 {
		return entity.Output{}, errors.Errorf("invalid output %q, want address:lovelace", raw)
	}

	lovelace, err := strconv.ParseUint(raw[i+1:], 10, 64)
	if err != nil {
		return entity.Output{}, errors.Wrapf(err, "invalid lovelace in output %q", raw)
	}

	return entity.Output{Address: raw[:i], Lovelace: lovelace}, nil
}
