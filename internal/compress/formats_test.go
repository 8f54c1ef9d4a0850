package compress

import "testing"

func TestIsSupportedExtension(t *testing.T) {
	for _, ext := range []string{".mp4", ".MOV", ".mkv", " .webm ", ".m4v", ".flv", ".wmv", ".avi"} {
		if !IsSupportedExtension(ext) {
			t.Errorf("%q should be supported", ext)
		}
	}
	for _, ext := range []string{"", ".txt", "mp4", ".mpg", ".gif"} {
		if IsSupportedExtension(ext) {
			t.Errorf("%q should be rejected", ext)
		}
	}
}

func TestSupportedExtensionsReturnsCopy(t *testing.T) {
	exts := SupportedExtensions()
	exts[0] = ".bogus"
	if IsSupportedExtension(".bogus") {
		t.Fatal("mutating the returned slice changed the allow-list")
	}
}

func TestStateTerminal(t *testing.T) {
	terminal := map[State]bool{
		StateIdle:         false,
		StateValidating:   false,
		StateResolving:    false,
		StateInitializing: false,
		StateExecuting:    false,
		StateCompleted:    true,
		StateFailed:       true,
		StateCancelled:    true,
	}
	for state, want := range terminal {
		if got := state.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", state, got, want)
		}
	}
}
