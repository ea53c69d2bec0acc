package cli

import "fmt"

type backendError struct {
	command string
	want    string
	got     string
}

func (e backendError) Error() string {
	return fmt.Sprintf("%s requires the %s backend (current: %s)", e.command, e.want, e.got)
}

func errBackend(command, want, got string) error {
	return backendError{command: command, want: want, got: got}
}

type missingSettingError struct {
	setting string
	flag    string
}

func (e missingSettingError) Error() string {
	return fmt.Sprintf("missing %s (set %s or the config file)", e.setting, e.flag)
}

func errMissingSetting(setting, flag string) error {
	return missingSettingError{setting: setting, flag: flag}
}
