// SPDX-License-Identifier: EPL-2.0

package utils

const (
	int16Scale    float32 = 32767.0
	int16InvScale float32 = 1.0 / 32768.0
)

// Float32ToInt16 clamps x to [-1, 1] and scales it to 16-bit PCM.
func Float32ToInt16(x float32) int16 {
	return int16(ClampUnit(x) * int16Scale)
}

// Int16ToFloat32 maps a 16-bit PCM sample into [-1, 1).
func Int16ToFloat32(v int16) float32 {
	return float32(v) * int16InvScale
}

// IntToFloat32 normalizes an integer PCM sample of the given bit depth.
// Unknown depths are treated as 16-bit.
func IntToFloat32(v int, bitDepth int) float32 {
	switch bitDepth {
	case 8:
		return float32(v) / 128.0
	case 24:
		return float32(v) / 8388608.0
	case 32:
		return float32(v) / 2147483648.0
	default:
		return float32(v) * int16InvScale
	}
}

// Float32ToInt scales x to an integer PCM sample of the given bit depth.
func Float32ToInt(x float32, bitDepth int) int {
	x = ClampUnit(x)
	switch bitDepth {
	case 8:
		return int(x * 127.0)
	case 24:
		return int(x * 8388607.0)
	case 32:
		return int(float64(x) * 2147483647.0)
	default:
		return int(x * int16Scale)
	}
}

// ClampUnit limits x to [-1, 1].
func ClampUnit(x float32) float32 {
	if x > 1 {
		return 1
	} else if x < -1 {
		return -1
	}
	return x
}
