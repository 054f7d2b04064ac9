package settings

const (
	defaultFlatpakBinary = "syncthing"
	defaultPort          = 8384
)

// Default returns the compiled default document used whenever the persisted
// one is missing, unreadable, or of an unknown version.
func Default() Settings {
	return Settings{
		ConfigVersion: CurrentVersion,
		Mode:          ModeSystemd,
		FlatpakBinary: defaultFlatpakBinary,
		Autostart:     AutostartNo,
		Port:          defaultPort,
		IsSetup:       SetupPending,
	}
}
