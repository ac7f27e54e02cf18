package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gclaussn/go-camunda/camunda"
	"github.com/gclaussn/go-camunda/rest"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestDeployment(t *testing.T) {
	assert := assert.New(t)

	e, client := mustCreateEngine(t)

	var deploymentId string

	t.Run("create", func(t *testing.T) {
		// when
		out := mustExecute(t, client, []string{
			"deployment",
			"create",
			"--name",
			"order",
			"--file",
			"./testdata/order.bpmn",
		})

		// then
		deployments := e.Deployments()
		if !assert.Len(deployments, 1) {
			return
		}

		deploymentId = deployments[0].Id

		assert.Equal("order", deployments[0].Name)
		assert.Equal(program, deployments[0].Source)
		assert.Equal([]string{"order.bpmn"}, deployments[0].Resources)

		lines := strings.Split(strings.TrimSpace(out), "\n")
		if !assert.Len(lines, 4) {
			return
		}
		assert.Equal(deploymentId, lines[0])
		assert.True(strings.HasPrefix(lines[1], "PROCESS DEFINITION ID"))
		assert.Contains(lines[3], "order:1:")
	})

	t.Run("create with duplicate filtering", func(t *testing.T) {
		// when
		out := mustExecute(t, client, []string{
			"deployment",
			"create",
			"--name",
			"order",
			"--file",
			"./testdata/order.bpmn",
			"--duplicate-filtering",
		})

		// then
		assert.Equal(deploymentId+"\n", out)
		assert.Len(e.Deployments(), 1)
	})

	t.Run("create fails when file not exists", func(t *testing.T) {
		_, err := execute(client, []string{
			"deployment",
			"create",
			"--name",
			"order",
			"--file",
			"./testdata/not-existing.bpmn",
		})

		assert.Error(err)
	})

	t.Run("query", func(t *testing.T) {
		// when
		out := mustExecute(t, client, []string{
			"deployment",
			"query",
			"--name-like",
			"ord%",
		})

		// then
		lines := strings.Split(strings.TrimSpace(out), "\n")
		if !assert.Len(lines, 3) {
			return
		}
		assert.True(strings.HasPrefix(lines[0], "ID"))
		assert.True(strings.HasPrefix(lines[2], deploymentId))

		assert.Equal("nameLike=ord%25&maxResults=100", e.LastRequest().Query)
	})

	t.Run("query with HAL", func(t *testing.T) {
		// given
		halClient, err := camunda.New(e.URL(), func(o *camunda.Options) {
			o.HAL = true
		})
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		// when
		out := mustExecute(t, halClient, []string{
			"deployment",
			"query",
		})

		// then
		assert.Equal(rest.ContentTypeHalJson, e.LastRequest().Header.Get(rest.HeaderAccept))

		lines := strings.Split(strings.TrimSpace(out), "\n")
		if !assert.Len(lines, 3) {
			return
		}
		assert.True(strings.HasPrefix(lines[2], deploymentId))
	})

	t.Run("delete", func(t *testing.T) {
		// when
		mustExecute(t, client, []string{
			"deployment",
			"delete",
			"--id",
			deploymentId,
			"--cascade",
		})

		// then
		assert.Empty(e.Deployments())
		assert.Equal("cascade=true", e.LastRequest().Query)
	})

	t.Run("delete fails when not exists", func(t *testing.T) {
		_, err := execute(client, []string{
			"deployment",
			"delete",
			"--id",
			deploymentId,
		})

		assert.ErrorContains(err, "HTTP 404")
	})
}

func TestWatchFiles(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()

	fileName := filepath.Join(dir, "order.bpmn")
	if err := os.WriteFile(fileName, []byte("<definitions/>"), 0600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	otherFileName := filepath.Join(dir, "other.bpmn")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var deployments atomic.Int32

	done := make(chan error, 1)
	go func() {
		done <- watchFiles(ctx, zap.NewNop(), []string{fileName}, func() error {
			deployments.Add(1)
			return nil
		})
	}()

	// wait for the watcher to be added
	time.Sleep(100 * time.Millisecond)

	// when
	if err := os.WriteFile(otherFileName, []byte("<definitions/>"), 0600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if err := os.WriteFile(fileName, []byte("<definitions id=\"changed\"/>"), 0600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	// then
	assert.Eventually(func() bool {
		return deployments.Load() != 0
	}, 5*time.Second, 10*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher not stopped")
	}
}
