package onnx

import (
	"fmt"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/nvr-ai/go-classify/inference"
)

// dataTypeName returns the short name of a tensor element type.
func dataTypeName(t ort.TensorElementDataType) string {
	switch t {
	case ort.TensorElementDataTypeFloat:
		return "float32"
	case ort.TensorElementDataTypeFloat16:
		return "float16"
	case ort.TensorElementDataTypeDouble:
		return "float64"
	case ort.TensorElementDataTypeInt64:
		return "int64"
	case ort.TensorElementDataTypeInt32:
		return "int32"
	case ort.TensorElementDataTypeUint8:
		return "uint8"
	case ort.TensorElementDataTypeInt8:
		return "int8"
	case ort.TensorElementDataTypeBool:
		return "bool"
	default:
		return fmt.Sprintf("type(%d)", int(t))
	}
}

// toBindings converts the graph inputs and outputs into bindings, inputs first.
//
// Arguments:
//   - inputs: The graph inputs.
//   - outputs: The graph outputs.
//
// Returns:
//   - []inference.Binding: The bindings in binding order.
//   - error: An error if a binding is not a float32 tensor.
func toBindings(inputs, outputs []ort.InputOutputInfo) ([]inference.Binding, error) {
	bindings := make([]inference.Binding, 0, len(inputs)+len(outputs))
	add := func(info ort.InputOutputInfo, dir inference.Direction) error {
		if info.OrtValueType != ort.ONNXTypeTensor {
			return fmt.Errorf("binding %q is not a tensor", info.Name)
		}
		if info.DataType != ort.TensorElementDataTypeFloat {
			return fmt.Errorf("binding %q has element type %s, only float32 is supported",
				info.Name, dataTypeName(info.DataType))
		}
		dims := make([]int64, len(info.Dimensions))
		copy(dims, info.Dimensions)
		bindings = append(bindings, inference.Binding{
			Name:      info.Name,
			Direction: dir,
			DataType:  dataTypeName(info.DataType),
			Dims:      dims,
		})
		return nil
	}

	for _, info := range inputs {
		if err := add(info, inference.DirectionInput); err != nil {
			return nil, err
		}
	}
	for _, info := range outputs {
		if err := add(info, inference.DirectionOutput); err != nil {
			return nil, err
		}
	}
	return bindings, nil
}

func names(bindings []inference.Binding) []string {
	out := make([]string, len(bindings))
	for i, b := range bindings {
		out[i] = b.Name
	}
	return out
}
