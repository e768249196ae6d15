package fetch

import (
	"bufio"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncgopher/ncgopher-go/internal/page"
	"github.com/ncgopher/ncgopher-go/internal/urlmodel"
)

func TestFingerFetchesPlainText(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		reader := bufio.NewReader(conn)
		line, _ := reader.ReadString('\n')
		assert.Equal(t, "alice\r\n", line)
		_, _ = conn.Write([]byte("Login: alice\nHome: /home/alice\n"))
	}()

	addr := ln.Addr().(*net.TCPAddr)
	u := &urlmodel.URL{
		Scheme:      urlmodel.SchemeFinger,
		Host:        "127.0.0.1",
		HostDisplay: "127.0.0.1",
		Port:        addr.Port,
		Path:        "/alice",
	}

	result, err := Finger(u)
	require.NoError(t, err)
	require.NotNil(t, result.Page)
	require.Len(t, result.Page.Lines, 2)
	assert.Equal(t, page.KindText, result.Page.Lines[0].Kind)
	assert.Equal(t, "Login: alice", result.Page.Lines[0].Text)
	assert.Equal(t, page.KindText, result.Page.Lines[1].Kind)
	assert.Equal(t, "Home: /home/alice", result.Page.Lines[1].Text)
}
