// Package serialport opens the P1 serial line, grounded on port_reader's
// connect/disconnect pair but narrowed to just the port-opening concern —
// framing and parsing live in pkg/ingest.
package serialport

import (
	"fmt"
	"io"

	"github.com/jacobsa/go-serial/serial"
)

// Open opens device at baud using 8N1 framing, matching the P1 port's
// fixed wire parameters.
//
// The meter's RX line is inverted at the UART-peripheral level on the
// original ESP32 hardware (uart_set_line_inverse); there is no portable Go
// equivalent over a generic tty device, so a deployment on non-inverting
// hardware needs an external line-level inverter between the meter and
// the host. This is a platform limitation, not an oversight.
func Open(device string, baud uint) (io.ReadWriteCloser, error) {
	options := serial.OpenOptions{
		PortName:        device,
		BaudRate:        baud,
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
	}

	port, err := serial.Open(options)
	if err != nil {
		return nil, fmt.Errorf("serialport: open %s: %w", device, err)
	}
	return port, nil
}
