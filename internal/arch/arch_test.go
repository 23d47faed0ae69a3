package arch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	repoerrors "github.com/cgwalters/cosa-rojig-repoize/errors"
	"github.com/cgwalters/cosa-rojig-repoize/internal/executor"
)

type mockExecutor struct {
	result *executor.Result
	err    error
	calls  int
}

func (m *mockExecutor) Execute(context.Context, ...executor.Option) (*executor.Result, error) {
	m.calls++
	return m.result, m.err
}

func TestCommandDetector(t *testing.T) {
	tests := []struct {
		name    string
		exec    *mockExecutor
		want    string
		wantErr bool
	}{
		{
			name: "trims output",
			exec: &mockExecutor{result: &executor.Result{Stdout: "  x86_64\n"}},
			want: "x86_64",
		},
		{
			name:    "empty output",
			exec:    &mockExecutor{result: &executor.Result{Stdout: "\n"}},
			wantErr: true,
		},
		{
			name: "helper failure",
			exec: &mockExecutor{
				result: &executor.Result{Stderr: "cosa: not in a build dir", ExitCode: 1},
				err:    errors.New("exit status 1"),
			},
			wantErr: true,
		},
		{
			name:    "helper missing",
			exec:    &mockExecutor{err: errors.New("executable file not found")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CommandDetector(tt.exec)(context.Background())
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, repoerrors.ErrDetectArch)
				assert.True(t, repoerrors.IsKind(err, repoerrors.KindConfig))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCommandDetector_IncludesStderr(t *testing.T) {
	exec := &mockExecutor{
		result: &executor.Result{Stderr: "cosa: not in a build dir\n", ExitCode: 1},
		err:    errors.New("exit status 1"),
	}
	_, err := CommandDetector(exec)(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not in a build dir")
}

func TestResolve(t *testing.T) {
	exec := &mockExecutor{result: &executor.Result{Stdout: "aarch64\n"}}
	detect := CommandDetector(exec)

	got, err := Resolve(context.Background(), "ppc64le", detect)
	require.NoError(t, err)
	assert.Equal(t, "ppc64le", got)
	assert.Equal(t, 0, exec.calls, "explicit arch must not invoke the helper")

	got, err = Resolve(context.Background(), "", detect)
	require.NoError(t, err)
	assert.Equal(t, "aarch64", got)
	assert.Equal(t, 1, exec.calls)
}
