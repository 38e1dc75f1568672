// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Querent Contributors

// Package fuseki manages a local Apache Jena Fuseki container so the card
// graph can be served without a manually provisioned triple store.
package fuseki

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"

	qerr "github.com/querent-dev/querent/pkg/errors"
)

const (
	imageName     = "stain/jena-fuseki:latest"
	containerName = "querent-fuseki"
	volumeName    = "querent-fuseki-data"
	fusekiPort    = "3030/tcp"

	stopTimeoutSecs = 10

	createRetryAttempts = 5
	createRetryDelay    = 250 * time.Millisecond
)

// Status describes the managed container's current state.
type Status struct {
	Exists  bool
	Running bool
	ID      string
}

// Manager drives the lifecycle of the local Fuseki container.
type Manager struct {
	cli *client.Client
	log *slog.Logger
}

// NewManager creates a Docker-backed Fuseki manager.
func NewManager(log *slog.Logger) (*Manager, error) {
	if log == nil {
		log = slog.Default()
	}

	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, qerr.Wrapf(err, qerr.CodeGraphServiceStartFailure, "creating docker client")
	}
	return &Manager{cli: cli, log: log}, nil
}

// EnsureRunning makes sure the Fuseki container exists and is running,
// serving the given dataset on hostPort. Returns the container ID.
func (m *Manager) EnsureRunning(ctx context.Context, dataset string, hostPort int) (string, error) {
	inspect, err := m.cli.ContainerInspect(ctx, containerName)
	if err == nil {
		if inspect.State.Running {
			m.log.Info("fuseki container already running", "container_id", inspect.ID)
			return inspect.ID, nil
		}

		m.log.Info("starting stopped fuseki container", "container_id", inspect.ID)
		if err := m.cli.ContainerStart(ctx, inspect.ID, container.StartOptions{}); err != nil {
			return "", qerr.Wrapf(err, qerr.CodeGraphServiceStartFailure, "starting container %s", inspect.ID)
		}
		return inspect.ID, nil
	}
	if !errdefs.IsNotFound(err) {
		return "", qerr.Wrapf(err, qerr.CodeGraphServiceStartFailure, "inspecting container %s", containerName)
	}

	m.log.Info("creating fuseki container", "dataset", dataset, "port", hostPort)

	config := &container.Config{
		Image: imageName,
		Env: []string{
			"FUSEKI_DATASET_1=" + dataset,
			"ADMIN_PASSWORD=admin",
		},
		ExposedPorts: nat.PortSet{fusekiPort: struct{}{}},
	}

	hostConfig := &container.HostConfig{
		PortBindings: nat.PortMap{
			fusekiPort: []nat.PortBinding{{
				HostIP:   "127.0.0.1",
				HostPort: fmt.Sprintf("%d", hostPort),
			}},
		},
		// A named volume keeps the loaded graph across container removal.
		Mounts: []mount.Mount{{
			Type:   mount.TypeVolume,
			Source: volumeName,
			Target: "/fuseki",
		}},
		RestartPolicy: container.RestartPolicy{Name: container.RestartPolicyUnlessStopped},
	}

	var resp container.CreateResponse
	var createErr error
	for i := 0; i < createRetryAttempts; i++ {
		resp, createErr = m.cli.ContainerCreate(ctx, config, hostConfig, nil, nil, containerName)
		if createErr == nil {
			break
		}

		errStr := strings.ToLower(createErr.Error())
		if !strings.Contains(errStr, "is already in use") && !strings.Contains(errStr, "conflict") {
			return "", qerr.Wrapf(createErr, qerr.CodeGraphServiceStartFailure, "creating container")
		}

		// A lingering container from a delayed cleanup holds the name.
		m.log.Warn("container name conflict during create, retrying",
			"container_name", containerName,
			"attempt", i+1,
			"error", createErr,
		)
		if inspect, inspectErr := m.cli.ContainerInspect(ctx, containerName); inspectErr == nil {
			if stopErr := m.remove(ctx, inspect.ID); stopErr != nil {
				m.log.Warn("failed to remove conflicting container before retry", "container_id", inspect.ID, "error", stopErr)
			}
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(createRetryDelay):
		}
	}
	if createErr != nil {
		return "", qerr.Wrapf(createErr, qerr.CodeGraphServiceStartFailure, "creating container after retries")
	}

	if err := m.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		if removeErr := m.cli.ContainerRemove(ctx, resp.ID, container.RemoveOptions{Force: true}); removeErr != nil {
			m.log.Warn("failed to remove container after start failure", "container_id", resp.ID, "error", removeErr)
		}
		return "", qerr.Wrapf(err, qerr.CodeGraphServiceStartFailure, "starting container %s", resp.ID)
	}

	m.log.Info("fuseki container started", "container_id", resp.ID)
	return resp.ID, nil
}

// Stop stops and removes the managed container.
func (m *Manager) Stop(ctx context.Context) error {
	inspect, err := m.cli.ContainerInspect(ctx, containerName)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return qerr.Errorf(qerr.CodeGraphServiceNotFound, "fuseki container not found")
		}
		return qerr.Wrapf(err, qerr.CodeGraphServiceStopFailure, "inspecting container %s", containerName)
	}
	return m.remove(ctx, inspect.ID)
}

// Status reports the managed container's state.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	inspect, err := m.cli.ContainerInspect(ctx, containerName)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return Status{}, nil
		}
		return Status{}, qerr.Wrapf(err, qerr.CodeGraphServiceStartFailure, "inspecting container %s", containerName)
	}
	return Status{Exists: true, Running: inspect.State.Running, ID: inspect.ID}, nil
}

func (m *Manager) remove(ctx context.Context, containerID string) error {
	timeout := stopTimeoutSecs
	if err := m.cli.ContainerStop(ctx, containerID, container.StopOptions{Timeout: &timeout}); err != nil && !errdefs.IsNotFound(err) {
		m.log.Warn("failed to stop container, forcing removal", "container_id", containerID, "error", err)
	}

	if err := m.cli.ContainerRemove(ctx, containerID, container.RemoveOptions{Force: true}); err != nil && !errdefs.IsNotFound(err) {
		return qerr.Wrapf(err, qerr.CodeGraphServiceStopFailure, "removing container %s", containerID)
	}
	return nil
}
