package nvconfig

// WifiMode selects whether the sensor advertises its own access point or
// joins an existing network, mirroring the AP/STA choice networking.c
// reads out of NVS.
type WifiMode string

const (
	WifiModeAP  WifiMode = "AP"
	WifiModeSTA WifiMode = "STA"
)

// Keys are the well-known non-volatile configuration entries named by the
// persistent-configuration interface: Wi-Fi mode, AP/STA credentials,
// hostname, mDNS instance name, and the peak-prediction method.
const (
	KeyWifiMode     = "wifi_mode"
	KeyAPSSID       = "ap_ssid"
	KeyAPPassword   = "ap_password"
	KeyAPChannel    = "ap_channel"
	KeySTASSID      = "sta_ssid"
	KeySTAPassword  = "sta_password"
	KeyHostname     = "hostname"
	KeyMDNSInstance = "mdns_instance_name"
	KeyPredictor    = "predict_peak_method"
)
