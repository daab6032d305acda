package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

// NewFlowCmd создаёт группу команд для управления flows.
func NewFlowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flow",
		Short: "Manage flows",
	}

	cmd.AddCommand(
		newFlowListCmd(clientFn, outputFn),
		newFlowCreateCmd(clientFn, outputFn),
		newFlowShowCmd(clientFn, outputFn),
		newFlowDeleteCmd(clientFn, outputFn),
	)

	return cmd
}

var flowHeaders = []string{"ID", "DEVICE", "NAME", "STEPS", "LAST_RUN", "LAST_STATUS"}

func flowRow(f FlowResponse) []string {
	return []string{
		f.ID, f.DeviceSerial, f.Name, strconv.Itoa(len(f.Steps)),
		f.LastRunAt, f.LastRunStatus,
	}
}

func newFlowListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all flows",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			flows, err := client.ListFlows()
			if err != nil {
				return err
			}

			rows := make([][]string, len(flows))
			for i, f := range flows {
				rows[i] = flowRow(f)
			}

			out.Print(flowHeaders, rows, flows)
			return nil
		},
	}
}

func newFlowCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var name string
	var deviceSerial string
	var stepsFile string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new flow from a steps file",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			data, err := os.ReadFile(stepsFile)
			if err != nil {
				return fmt.Errorf("failed to read steps file: %w", err)
			}

			var steps []StepRequest
			if err := json.Unmarshal(data, &steps); err != nil {
				return fmt.Errorf("steps file must be a JSON array of steps: %w", err)
			}

			flow, err := client.CreateFlow(CreateFlowRequest{
				DeviceSerial: deviceSerial,
				Name:         name,
				Steps:        steps,
			})
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Flow created: %s", flow.ID))
			out.Print(flowHeaders, [][]string{flowRow(*flow)}, flow)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Flow name (required)")
	cmd.Flags().StringVar(&deviceSerial, "device", "", "Device serial (required)")
	cmd.Flags().StringVar(&stepsFile, "steps-file", "", "Path to JSON file with steps (required)")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("device")
	cmd.MarkFlagRequired("steps-file")

	return cmd
}

func newFlowShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show flow details with steps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			flow, err := client.GetFlow(args[0])
			if err != nil {
				return err
			}

			if out.jsonMode {
				out.JSON(flow)
				return nil
			}

			out.Table(flowHeaders, [][]string{flowRow(*flow)})

			headers := []string{"#", "TYPE", "DESCRIPTION"}
			rows := make([][]string, len(flow.Steps))
			for i, s := range flow.Steps {
				rows[i] = []string{strconv.Itoa(i), s.Type, s.Description}
			}
			out.Table(headers, rows)
			return nil
		},
	}
}

func newFlowDeleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a flow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.DeleteFlow(args[0]); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Flow deleted: %s", args[0]))
			return nil
		},
	}
}
