package resolver

import "pseudo9608/interpreter-go/pkg/types"

// BuiltinSignatures returns the callable signatures pre-registered in the
// global frame before resolution. The resolver checks calls to these
// exactly as it checks user-declared functions; their implementations are
// registered by the interpreter under the same names.
func BuiltinSignatures() map[string]types.Callable {
	param := func(name string, t types.Type) types.Param {
		return types.Param{Name: name, Type: t, Mode: types.ByValue}
	}
	return map[string]types.Callable{
		"EOF": {
			Params: []types.Param{param("Filename", types.String)},
			Return: types.Boolean,
		},
		"INT": {
			Params: []types.Param{param("x", types.Real)},
			Return: types.Integer,
		},
		"RND": {
			Params: nil,
			Return: types.Real,
		},
		"RANDOMBETWEEN": {
			Params: []types.Param{param("Lo", types.Integer), param("Hi", types.Integer)},
			Return: types.Integer,
		},
		"LENGTH": {
			Params: []types.Param{param("ThisString", types.String)},
			Return: types.Integer,
		},
		"MID": {
			Params: []types.Param{
				param("ThisString", types.String),
				param("StartPosition", types.Integer),
				param("Length", types.Integer),
			},
			Return: types.String,
		},
		"LEFT": {
			Params: []types.Param{param("ThisString", types.String), param("Length", types.Integer)},
			Return: types.String,
		},
		"RIGHT": {
			Params: []types.Param{param("ThisString", types.String), param("Length", types.Integer)},
			Return: types.String,
		},
		"ASC": {
			Params: []types.Param{param("ThisChar", types.String)},
			Return: types.Integer,
		},
	}
}
