package main

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const seedFile = "testdata/seed.yaml"

// run executes the root command with args and returns what it printed to
// stdout.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestQueryCommand(t *testing.T) {
	out, err := run(t, "", "query", "--seed", seedFile, `{ post(id: 1) { title author { name } } }`)
	require.NoError(t, err)
	require.JSONEq(t, `{"data":{"post":{"title":"My First Post","author":{"name":"Ada"}}}}`, out)
}

func TestQueryCommand_Variables(t *testing.T) {
	out, err := run(t, "",
		"query", "--seed", seedFile, "--pretty=false",
		"--variables", `{"id": 2}`,
		"--operation", "Second",
		`query First { posts { id } } query Second($id: ID!) { post(id: $id) { title } }`)
	require.NoError(t, err)
	require.Equal(t, `{"data":{"post":{"title":"Second thoughts"}}}`+"\n", out)
}

func TestQueryCommand_Stdin(t *testing.T) {
	out, err := run(t, `mutation { createPost(title: "t", body: "b", authorId: 1) { id author { name } } }`,
		"query", "--seed", seedFile, "--file", "-")
	require.NoError(t, err)
	require.JSONEq(t, `{"data":{"createPost":{"id":"3","author":{"name":"Ada"}}}}`, out)
}

func TestQueryCommand_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "q.graphql")
	require.NoError(t, os.WriteFile(path, []byte(`{ users { name } }`), 0o600))

	out, err := run(t, "", "query", "--seed", seedFile, "-f", path)
	require.NoError(t, err)
	require.JSONEq(t, `{"data":{"users":[{"name":"Ada"},{"name":"Brian"}]}}`, out)
}

func TestQueryCommand_ErrorsExitNonZero(t *testing.T) {
	out, err := run(t, "", "query", "{ nope }")
	require.EqualError(t, err, "query returned 1 error(s)")
	require.JSONEq(t, `{"errors":[{"message":"Field 'nope' doesn't exist on type 'Query'","path":["nope"]}]}`, out)
}

func TestQueryCommand_BadInput(t *testing.T) {
	_, err := run(t, "", "query")
	require.EqualError(t, err, "no document given")

	_, err = run(t, "", "query", "--variables", "{", "{ posts { id } }")
	require.ErrorContains(t, err, "parse --variables")

	_, err = run(t, "", "query", "--file", "-", "{ posts { id } }")
	require.ErrorContains(t, err, "not both")

	_, err = run(t, "", "query", "--log-level", "loud", "{ posts { id } }")
	require.ErrorContains(t, err, "invalid --log-level")
}

func TestQueryCommand_Environment(t *testing.T) {
	t.Setenv("GRAPHCORE_SEED", seedFile)
	t.Setenv("GRAPHCORE_PRETTY", "false")

	out, err := run(t, "", "query", `{ post(id: 1) { body } }`)
	require.NoError(t, err)
	require.Equal(t, `{"data":{"post":{"body":"GraphQL is pretty rad!"}}}`+"\n", out)
}

func TestQueryCommand_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	config := filepath.Join(dir, "graphcore.yaml")
	require.NoError(t, os.WriteFile(config, []byte("seed: "+seedFile+"\npretty: false\n"), 0o600))

	out, err := run(t, "", "query", "--config", config, `{ user(id: 2) { name email } }`)
	require.NoError(t, err)
	require.Equal(t, `{"data":{"user":{"name":"Brian","email":null}}}`+"\n", out)
}

func TestQueryCommand_PersistentDataDir(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, "", "query", "--data-dir", dir, "--seed", seedFile,
		`mutation { createPost(title: "kept", body: "on disk", authorId: 2) { id } }`)
	require.NoError(t, err)

	out, err := run(t, "", "query", "--data-dir", dir, "--pretty=false", `{ post(id: 3) { title } }`)
	require.NoError(t, err)
	require.Equal(t, `{"data":{"post":{"title":"kept"}}}`+"\n", out)
}

func TestSchemaCommand(t *testing.T) {
	out, err := run(t, "", "schema")
	require.NoError(t, err)
	require.Contains(t, out, "type Query {\n")
	require.Contains(t, out, "  post(id: ID!): Post\n")
	require.Contains(t, out, "input CommentInput {\n")

	path := filepath.Join(t.TempDir(), "schema.graphql")
	_, err = run(t, "", "schema", "--out", path)
	require.NoError(t, err)
	written, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, out, string(written))
}

func TestServe(t *testing.T) {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addServeFlags(fs)
	fs.String("seed", seedFile, "")
	fs.String("data-dir", "", "")
	require.NoError(t, fs.Parse([]string{"--rate-limit", "100"}))

	conf := viper.New()
	require.NoError(t, conf.BindPFlags(fs))
	a := &app{conf: conf, logger: zaptest.NewLogger(t)}

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	base := "http://" + lis.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.serve(ctx, lis) }()

	resp, err := http.Post(base+"/graphql", "application/json",
		strings.NewReader(`{"query":"{ post(id: 1) { title } }"}`))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"data":{"post":{"title":"My First Post"}}}`, string(body))
	require.NotEmpty(t, resp.Header.Get("X-Request-Id"))

	resp, err = http.Get(base + "/metrics")
	require.NoError(t, err)
	body, err = io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	require.Contains(t, string(body), `graphcore_graphql_operations_total{outcome="ok",type="query"} 1`)

	cancel()
	require.NoError(t, <-done)
}
