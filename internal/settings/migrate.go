package settings

import (
	"context"

	"deckysync/internal/logging"
)

// Migrate decodes raw and upgrades it to the current schema. The result is
// always persisted before it is returned. Version dispatch makes the upgrade
// idempotent: a version 2 document passes through unchanged.
func (s *Store) Migrate(ctx context.Context, raw []byte) Settings {
	version, err := DetectVersion(raw)
	if err != nil {
		s.logger.Error("unsupported settings document; using defaults",
			logging.String(logging.FieldPath, s.path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "settings_unsupported"),
		)
		return s.persistDefault()
	}

	switch version {
	case 1:
		old, err := decodeV1(raw)
		if err != nil {
			s.logger.Error("version 1 settings undecodable; using defaults",
				logging.Error(err),
				logging.String(logging.FieldEventType, "settings_corrupt"),
			)
			return s.persistDefault()
		}
		s.logger.Info("running settings migration",
			logging.Int("from_version", 1),
			logging.Int("to_version", CurrentVersion),
			logging.String(logging.FieldEventType, "settings_migration"),
		)
		migrated := MigrateV1(old)
		// Anything started under the V1 layout would keep running with
		// credentials and a port the new document no longer describes.
		if s.reset != nil {
			s.reset.ResetAll(ctx)
		}
		s.persist(migrated)
		return migrated
	case CurrentVersion:
		current, err := decodeV2(raw)
		if err != nil {
			s.logger.Error("settings undecodable; using defaults",
				logging.Error(err),
				logging.String(logging.FieldEventType, "settings_corrupt"),
			)
			return s.persistDefault()
		}
		s.persist(current)
		return current
	default:
		s.logger.Error("unsupported settings version; using defaults",
			logging.Int("config_version", version),
			logging.String(logging.FieldEventType, "settings_unsupported"),
		)
		return s.persistDefault()
	}
}

// MigrateV1 maps a version 1 document onto the current schema. V1 only knew
// the flatpak launch model, so the result is always in flatpak mode and marked
// as mid-migration for the setup wizard.
func MigrateV1(old V1) Settings {
	autostart := AutostartNo
	if old.Autostart {
		autostart = AutostartGamescope
	}
	return Settings{
		ConfigVersion:        CurrentVersion,
		Mode:                 ModeFlatpak,
		ServiceName:          "",
		FlatpakName:          old.FlatpakName,
		FlatpakBinary:        defaultFlatpakBinary,
		Autostart:            autostart,
		KeepRunningOnDesktop: old.KeepRunningOnDesktop,
		Port:                 old.Port,
		APIKey:               old.APIKey,
		BasicAuthUser:        old.BasicAuthUser,
		BasicAuthPass:        old.BasicAuthPass,
		IsSetup:              SetupMigratingV2,
	}
}
