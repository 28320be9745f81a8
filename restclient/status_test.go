package restclient

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func respWithCode(code int) *Response {
	return &Response{Response: &http.Response{StatusCode: code}}
}

func TestNormalizeExpectation(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		wantErr bool
	}{
		{
			name:  "given nil, then validation is disabled",
			input: nil,
		},
		{
			name:  "given a single int, then accepts it",
			input: 200,
		},
		{
			name:  "given an int slice, then accepts it",
			input: []int{200, 201},
		},
		{
			name:  "given a status range, then accepts it",
			input: StatusRange{From: 200, To: 300},
		},
		{
			name:    "given an inverted range, then fails",
			input:   StatusRange{From: 300, To: 200},
			wantErr: true,
		},
		{
			name:  "given a known class, then accepts it",
			input: StatusSuccessful,
		},
		{
			name:    "given an unknown class, then fails",
			input:   StatusClass("weird"),
			wantErr: true,
		},
		{
			name:  "given a response predicate, then accepts it",
			input: func(*Response) bool { return true },
		},
		{
			name:    "given an unsupported shape, then fails",
			input:   "200",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp, err := normalizeExpectation(tt.input)

			if tt.wantErr {
				require.Error(t, err)
				var cfgErr *ConfigurationError
				assert.ErrorAs(t, err, &cfgErr)
				return
			}
			require.NoError(t, err)
			if tt.input == nil {
				assert.Nil(t, exp)
			} else {
				assert.NotNil(t, exp)
			}
		})
	}
}

func TestCheckStatus(t *testing.T) {
	tests := []struct {
		name        string
		code        int
		expectation any
		wantErr     bool
	}{
		{
			name:        "given 200 against successful class, then passes",
			code:        200,
			expectation: StatusSuccessful,
		},
		{
			name:        "given 300 against successful class, then fails",
			code:        300,
			expectation: StatusSuccessful,
			wantErr:     true,
		},
		{
			name:        "given 100 against code set, then passes",
			code:        100,
			expectation: []int{100, 101},
		},
		{
			name:        "given 102 against code set, then fails",
			code:        102,
			expectation: []int{100, 101},
			wantErr:     true,
		},
		{
			name:        "given nil expectation, then any code passes",
			code:        599,
			expectation: nil,
		},
		{
			name:        "given exact code match, then passes",
			code:        204,
			expectation: 204,
		},
		{
			name:        "given exact code mismatch, then fails",
			code:        204,
			expectation: 200,
			wantErr:     true,
		},
		{
			name:        "given half-open range, then upper bound is excluded",
			code:        300,
			expectation: StatusRange{From: 200, To: 300},
			wantErr:     true,
		},
		{
			name:        "given half-open range, then lower bound is included",
			code:        200,
			expectation: StatusRange{From: 200, To: 300},
		},
		{
			name:        "given a response predicate, then it decides alone",
			code:        500,
			expectation: func(r *Response) bool { return r.Header.Get("X-Ok") == "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp, err := normalizeExpectation(tt.expectation)
			require.NoError(t, err)

			resp := respWithCode(tt.code)
			resp.Response.Header = http.Header{}
			err = checkStatus(resp, exp)

			if tt.wantErr {
				var statusErr *UnexpectedStatusCode
				require.ErrorAs(t, err, &statusErr)
				assert.Equal(t, tt.code, statusErr.Response.StatusCode)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestUnexpectedStatusCode_Message(t *testing.T) {
	tests := []struct {
		name        string
		code        int
		expectation any
		want        string
	}{
		{
			name:        "given exact expectation, then message carries the code",
			code:        404,
			expectation: 200,
			want:        "Expected HTTP status code to be 200, but got 404.",
		},
		{
			name:        "given class expectation, then message carries the class name",
			code:        500,
			expectation: StatusSuccessful,
			want:        "Expected HTTP status code to be successful, but got 500.",
		},
		{
			name:        "given code set expectation, then message lists the set",
			code:        500,
			expectation: []int{200, 201},
			want:        "Expected HTTP status code to be [200, 201], but got 500.",
		},
		{
			name:        "given range expectation, then message shows the half-open range",
			code:        500,
			expectation: StatusRange{From: 200, To: 300},
			want:        "Expected HTTP status code to be [200,300), but got 500.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp, err := normalizeExpectation(tt.expectation)
			require.NoError(t, err)

			err = checkStatus(respWithCode(tt.code), exp)
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestDefaultExpectationFor(t *testing.T) {
	tests := []struct {
		name    string
		verb    string
		passing []int
		failing []int
	}{
		{
			name:    "given GET, then only 200 passes",
			verb:    http.MethodGet,
			passing: []int{200},
			failing: []int{201, 204, 301, 404},
		},
		{
			name:    "given POST, then creation codes pass",
			verb:    http.MethodPost,
			passing: []int{200, 201, 202, 204, 205},
			failing: []int{203, 301, 500},
		},
		{
			name:    "given DELETE, then deletion codes pass",
			verb:    http.MethodDelete,
			passing: []int{200, 202, 204},
			failing: []int{201, 205},
		},
		{
			name:    "given OPTIONS, then 200 and 204 pass",
			verb:    http.MethodOptions,
			passing: []int{200, 204},
			failing: []int{201},
		},
		{
			name:    "given an unlisted verb, then any successful code passes",
			verb:    "PURGE",
			passing: []int{200, 299},
			failing: []int{300, 199},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp := defaultExpectationFor(tt.verb)
			require.NotNil(t, exp)

			for _, code := range tt.passing {
				assert.True(t, exp.Matches(respWithCode(code)), "code %d should pass", code)
			}
			for _, code := range tt.failing {
				assert.False(t, exp.Matches(respWithCode(code)), "code %d should fail", code)
			}
		})
	}
}
