package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/born-ml/siamese/internal/backend/cpu"
	"github.com/born-ml/siamese/internal/config"
	"github.com/born-ml/siamese/internal/net"
	"github.com/born-ml/siamese/internal/serialization"
	"github.com/born-ml/siamese/internal/tensor"
)

// Metadata keys written next to the output tensors.
const (
	MetaRunID = "run_id"
	MetaNet   = "net"
	MetaLoss  = "loss"
)

// DiffSuffix is appended to an input name for its gradient tensor.
const DiffSuffix = ".diff"

// RunHandler loads a net and its inputs, runs Forward (and Backward) and
// writes the outputs.
func RunHandler(cmd *cobra.Command, args []string) error {
	netPath, _ := cmd.Flags().GetString("net")
	inputsPath, _ := cmd.Flags().GetString("inputs")
	outPath, _ := cmd.Flags().GetString("out")
	backward, _ := cmd.Flags().GetBool("backward")

	cfg, err := config.Load(netPath)
	if err != nil {
		return err
	}
	n, err := net.New(cfg, cpu.New())
	if err != nil {
		return errors.WithMessagef(err, "building net %q", cfg.Name)
	}
	if err := loadInputs(n, inputsPath); err != nil {
		return err
	}

	start := time.Now()
	loss, err := n.Forward()
	if err != nil {
		return err
	}
	if backward {
		if err := n.Backward(); err != nil {
			return err
		}
	}
	klog.V(1).Infof("net %q ran in %s", cfg.Name, time.Since(start))

	tensors, err := collectOutputs(n, backward)
	if err != nil {
		return err
	}
	runID := uuid.NewString()
	metadata := map[string]string{
		MetaRunID: runID,
		MetaNet:   cfg.Name,
		MetaLoss:  strconv.FormatFloat(float64(loss), 'g', -1, 32),
	}
	size, err := serialization.WriteFile(outPath, tensors, metadata)
	if err != nil {
		return errors.WithMessagef(err, "writing %s", outPath)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run %s\n", runID)
	fmt.Fprintf(out, "loss %g\n", loss)
	fmt.Fprintf(out, "wrote %d tensors to %s (%s)\n", len(tensors), outPath, humanize.Bytes(uint64(size)))
	return nil
}

// loadInputs feeds every net input from the SafeTensors file at path.
func loadInputs(n *net.Net, path string) error {
	r, err := serialization.Open(path)
	if err != nil {
		return errors.WithMessagef(err, "opening inputs %s", path)
	}
	defer r.Close()

	for _, name := range n.Inputs() {
		raw, err := r.LoadTensor(name)
		if err != nil {
			return errors.WithMessagef(err, "input %q", name)
		}
		if err := n.SetInput(name, raw); err != nil {
			return err
		}
		klog.V(2).Infof("input %s: %s", name, raw)
	}
	return nil
}

// collectOutputs gathers the output blobs and, with diffs set, the gradient
// of every input.
func collectOutputs(n *net.Net, diffs bool) (map[string]*tensor.RawTensor, error) {
	tensors := make(map[string]*tensor.RawTensor)
	for _, name := range n.Outputs() {
		blob, err := n.Blob(name)
		if err != nil {
			return nil, err
		}
		tensors[name] = blob.Data()
	}
	if !diffs {
		return tensors, nil
	}
	for _, name := range n.Inputs() {
		blob, err := n.Blob(name)
		if err != nil {
			return nil, err
		}
		tensors[name+DiffSuffix] = blob.Diff()
	}
	return tensors, nil
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a net on SafeTensors inputs",
		Long: `Run a net described in YAML.

Each net input is read from the --inputs SafeTensors file by name. Every
output blob is written to --out, together with a run id. With --backward,
the gradient of each input is written as <input>.diff.`,
		Args: cobra.NoArgs,
		RunE: RunHandler,
	}
	cmd.Flags().String("net", "", "YAML net description")
	cmd.Flags().String("inputs", "", "SafeTensors file with one tensor per net input")
	cmd.Flags().String("out", "out.safetensors", "SafeTensors file to write")
	cmd.Flags().Bool("backward", false, "Run Backward and write input gradients")
	_ = cmd.MarkFlagRequired("net")
	_ = cmd.MarkFlagRequired("inputs")
	return cmd
}
