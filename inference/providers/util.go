package providers

import (
	"os"
	"path/filepath"
	"runtime"
)

// SharedLibEnv overrides the ONNX Runtime shared library location.
const SharedLibEnv = "ONNXRUNTIME_LIB"

// GetSharedLibPath returns the path to the ONNX Runtime shared library.
//
// Arguments:
//   - override: An explicit path. Empty falls back to $ONNXRUNTIME_LIB, then to the
//     platform default under third_party/.
//
// Returns:
//   - string: The path to the shared library.
func GetSharedLibPath(override string) string {
	if override != "" {
		return override
	}
	if env := os.Getenv(SharedLibEnv); env != "" {
		return env
	}
	return filepath.Join("third_party", defaultSharedLibName(runtime.GOOS, runtime.GOARCH))
}

func defaultSharedLibName(goos, goarch string) string {
	switch goos {
	case "windows":
		return "onnxruntime.dll"
	case "darwin":
		return "libonnxruntime.dylib"
	default:
		if goarch == "arm64" {
			return "onnxruntime_arm64.so"
		}
		return "onnxruntime.so"
	}
}
