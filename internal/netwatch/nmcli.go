package netwatch

import (
	"os/exec"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"helmcam/pkg/models"
)

// NMCli drives the wireless interface through NetworkManager's CLI, the
// standard control path on small embedded Linux boards.
type NMCli struct {
	iface string
}

// NewNMCli targets the given wireless interface, e.g. "wlan0".
func NewNMCli(iface string) *NMCli {
	return &NMCli{iface: iface}
}

// Scan lists visible SSIDs. Duplicate BSSIDs collapse to one entry.
func (n *NMCli) Scan() ([]string, error) {
	out, err := exec.Command("nmcli", "-t", "-f", "SSID", "device", "wifi", "list",
		"ifname", n.iface, "--rescan", "yes").Output()
	if err != nil {
		return nil, errors.Wrap(err, "nmcli wifi list")
	}

	seen := make(map[string]bool)
	var ssids []string
	for _, line := range strings.Split(string(out), "\n") {
		ssid := strings.TrimSpace(line)
		if ssid == "" || seen[ssid] {
			continue
		}
		seen[ssid] = true
		ssids = append(ssids, ssid)
	}
	return ssids, nil
}

// Connect associates with a known network; credentials must already be
// provisioned as a NetworkManager connection profile.
func (n *NMCli) Connect(ssid string) error {
	err := exec.Command("nmcli", "device", "wifi", "connect", ssid, "ifname", n.iface).Run()
	return errors.Wrapf(err, "nmcli connect %s", ssid)
}

// Status reports the current association, address and signal strength.
func (n *NMCli) Status() (models.Association, error) {
	out, err := exec.Command("nmcli", "-t", "-f",
		"GENERAL.STATE,GENERAL.CONNECTION,IP4.ADDRESS", "device", "show", n.iface).Output()
	if err != nil {
		return models.Association{}, errors.Wrap(err, "nmcli device show")
	}

	var assoc models.Association
	for _, line := range strings.Split(string(out), "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		switch {
		case key == "GENERAL.STATE":
			assoc.Connected = strings.Contains(value, "100")
		case key == "GENERAL.CONNECTION":
			assoc.SSID = strings.TrimSpace(value)
		case strings.HasPrefix(key, "IP4.ADDRESS"):
			addr, _, _ := strings.Cut(strings.TrimSpace(value), "/")
			assoc.IPAddress = addr
		}
	}

	assoc.RSSI = n.signal()
	return assoc, nil
}

// signal reads the active network's strength; nmcli reports percent, which
// maps onto the usual dBm range well enough for status reporting.
func (n *NMCli) signal() int {
	out, err := exec.Command("nmcli", "-t", "-f", "IN-USE,SIGNAL", "device", "wifi",
		"list", "ifname", n.iface).Output()
	if err != nil {
		return 0
	}
	for _, line := range strings.Split(string(out), "\n") {
		inUse, signal, ok := strings.Cut(line, ":")
		if !ok || inUse != "*" {
			continue
		}
		percent, err := strconv.Atoi(strings.TrimSpace(signal))
		if err != nil {
			return 0
		}
		// nmcli SIGNAL is 0-100; approximate dBm.
		return percent/2 - 100
	}
	return 0
}
