package extractors

import (
	"github.com/tidwall/gjson"
)

// response validates an ajax answer and returns its root. fn names the
// parser for error reporting.
func response(input, fn string) (gjson.Result, error) {
	if !gjson.Valid(input) {
		return gjson.Result{}, &ParseJSONError{Param: "body", Function: fn}
	}
	root := gjson.Parse(input)

	success := root.Get("success")
	if success.Type != gjson.True && success.Type != gjson.False {
		return gjson.Result{}, &ParseJSONError{Param: "success", Function: fn}
	}
	if !success.Bool() {
		return gjson.Result{}, &RequestFailedError{Message: root.Get("message").String()}
	}
	return root, nil
}

// stringParam returns a required string field.
func stringParam(root gjson.Result, param, fn string) (string, error) {
	v := root.Get(param)
	if v.Type != gjson.String {
		return "", &ParseJSONError{Param: param, Function: fn}
	}
	return v.String(), nil
}
