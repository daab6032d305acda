package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewDeviceCmd создаёт группу команд для управления устройствами.
func NewDeviceCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "device",
		Short: "Manage devices",
	}

	cmd.AddCommand(
		newDeviceListCmd(clientFn, outputFn),
		newDeviceRegisterCmd(clientFn, outputFn),
		newDeviceShowCmd(clientFn, outputFn),
		newDeviceUpdateCmd(clientFn, outputFn),
		newDeviceDeleteCmd(clientFn, outputFn),
		newDeviceFlowsCmd(clientFn, outputFn),
	)

	return cmd
}

var deviceHeaders = []string{"SERIAL", "NAME", "MODEL", "STATE", "LAST_SEEN"}

func deviceRow(d DeviceResponse) []string {
	return []string{d.Serial, d.Name, d.Model, d.State, d.LastSeenAt}
}

func newDeviceListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			devices, err := client.ListDevices()
			if err != nil {
				return err
			}

			rows := make([][]string, len(devices))
			for i, d := range devices {
				rows[i] = deviceRow(d)
			}

			out.Print(deviceHeaders, rows, devices)
			return nil
		},
	}
}

func newDeviceRegisterCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var req CreateDeviceRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new device",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			device, err := client.RegisterDevice(req)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Device registered: %s", device.Serial))
			out.Print(deviceHeaders, [][]string{deviceRow(*device)}, device)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Serial, "serial", "", "Device serial number (required)")
	cmd.Flags().StringVar(&req.Name, "name", "", "Device name (required)")
	cmd.Flags().StringVar(&req.Model, "model", "", "Device model")
	cmd.Flags().StringVar(&req.AndroidVersion, "android-version", "", "Android version")
	cmd.Flags().StringVar(&req.Passcode, "passcode", "", "Device passcode")
	cmd.MarkFlagRequired("serial")
	cmd.MarkFlagRequired("name")

	return cmd
}

func newDeviceShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show SERIAL",
		Short: "Show device details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			device, err := client.GetDevice(args[0])
			if err != nil {
				return err
			}

			out.Print(deviceHeaders, [][]string{deviceRow(*device)}, device)
			return nil
		},
	}
}

func newDeviceUpdateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var name string
	var model string
	var androidVersion string
	var passcode string
	var state string

	cmd := &cobra.Command{
		Use:   "update SERIAL",
		Short: "Update a device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			req := UpdateDeviceRequest{}
			if cmd.Flags().Changed("name") {
				req.Name = &name
			}
			if cmd.Flags().Changed("model") {
				req.Model = &model
			}
			if cmd.Flags().Changed("android-version") {
				req.AndroidVersion = &androidVersion
			}
			if cmd.Flags().Changed("passcode") {
				req.Passcode = &passcode
			}
			if cmd.Flags().Changed("state") {
				req.State = &state
			}

			device, err := client.UpdateDevice(args[0], req)
			if err != nil {
				return err
			}

			out.Success("Device updated")
			out.Print(deviceHeaders, [][]string{deviceRow(*device)}, device)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New device name")
	cmd.Flags().StringVar(&model, "model", "", "New device model")
	cmd.Flags().StringVar(&androidVersion, "android-version", "", "New Android version")
	cmd.Flags().StringVar(&passcode, "passcode", "", "New passcode")
	cmd.Flags().StringVar(&state, "state", "", "New state (PAIRED, UNPAIRED)")

	return cmd
}

func newDeviceDeleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete SERIAL",
		Short: "Delete a device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.DeleteDevice(args[0]); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Device deleted: %s", args[0]))
			return nil
		},
	}
}

func newDeviceFlowsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "flows SERIAL",
		Short: "List flows of a device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			flows, err := client.ListDeviceFlows(args[0])
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
