// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Command forgeplusd drives the render core's CPU-side frame
// loop headlessly against the null driver, for benchmarking mesh-
// pass preparation and draw-call generation without a GPU or a
// window. It serves its Prometheus metrics over HTTP for the
// duration of the run.
package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/ardenne/forgeplus/driver"
	_ "github.com/ardenne/forgeplus/driver/null"
	"github.com/ardenne/forgeplus/linear"
	"github.com/ardenne/forgeplus/meshpass"
	"github.com/ardenne/forgeplus/rframe"
	"github.com/ardenne/forgeplus/rgraph"
	"github.com/ardenne/forgeplus/robj"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// runFlags holds the values forgeplusd's "run" subcommand binds
// its pflag.FlagSet to.
type runFlags struct {
	framesInFlight int
	frameCount     int
	dynamicCount   int
	metricsAddr    string
}

// bind registers f's fields on fs. Taking *pflag.FlagSet
// directly (rather than cobra.Command) keeps flag definition
// independent of cobra's command tree.
func (f *runFlags) bind(fs *pflag.FlagSet) {
	fs.IntVarP(&f.framesInFlight, "frames-in-flight", "r", 2, "size of the command buffer ring")
	fs.IntVarP(&f.frameCount, "frame-count", "n", 60, "number of frames to drive before exiting")
	fs.IntVarP(&f.dynamicCount, "dynamic-count", "d", 1000, "number of synthetic dynamic objects per frame")
	fs.StringVarP(&f.metricsAddr, "metrics-addr", "m", ":9090", "address to serve /metrics on")
}

func main() {
	var f runFlags

	run := &cobra.Command{
		Use:   "run",
		Short: "Drive frameCount offscreen frames and serve Prometheus metrics meanwhile",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFrames(f.framesInFlight, f.frameCount, f.dynamicCount, f.metricsAddr)
		},
	}
	f.bind(run.Flags())

	root := &cobra.Command{
		Use:   "forgeplusd",
		Short: "Headless render-core frame driver",
	}
	root.AddCommand(run)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runFrames(framesInFlight, frameCount, dynamicCount int, metricsAddr string) error {
	drv, err := findDriver("null")
	if err != nil {
		return err
	}
	gpu, err := drv.Open()
	if err != nil {
		return fmt.Errorf("forgeplusd: open driver: %w", err)
	}
	defer drv.Close()

	fd, err := rframe.New(gpu, nil, framesInFlight)
	if err != nil {
		return fmt.Errorf("forgeplusd: new frame driver: %w", err)
	}
	defer fd.Destroy()

	reg := prometheus.NewRegistry()
	fd.SetMetrics(rframe.NewMetrics(reg))

	srv := &http.Server{Addr: metricsAddr, Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{})}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("forgeplusd: metrics server: %v", err)
		}
	}()
	defer srv.Close()

	g, err := rgraph.NewBuilder().Build(nil, gpu)
	if err != nil {
		return fmt.Errorf("forgeplusd: build graph: %w", err)
	}

	passes := meshpass.NewRegistry()
	passes.Add(meshpass.New(meshpass.Config{LayerMask: 1, ColorOutput: true}, sampleMeshLookup))

	dynamic := sampleDynamicObjects(dynamicCount)

	log.Printf("forgeplusd: serving metrics on %s, driving %d frames (%d dynamic objects each)", metricsAddr, frameCount, dynamicCount)
	for i := 0; i < frameCount; i++ {
		if err := fd.RunOffscreen(g, passes, dynamic, nil); err != nil {
			return fmt.Errorf("forgeplusd: frame %d: %w", fd.Frame(), err)
		}
	}
	log.Printf("forgeplusd: completed %d frames", fd.Frame())
	return nil
}

func findDriver(name string) (driver.Driver, error) {
	for _, d := range driver.Drivers() {
		if d.Name() == name {
			return d, nil
		}
	}
	return nil, fmt.Errorf("forgeplusd: no registered driver named %q", name)
}

// sampleMeshLookup reports a single ready, unit-sized triangle
// mesh for every mesh id: enough for sampleDynamicObjects to
// exercise preparation and culling without a real asset pipeline.
func sampleMeshLookup(mesh uint16) (robj.MeshInfo, bool) {
	return robj.MeshInfo{
		IndexCount: 3,
		Bounds:     robj.Bounds{Max: linear.V3{1, 1, 1}},
		Ready:      true,
	}, true
}

// sampleDynamicObjects synthesizes n unit-transform objects
// spread round-robin over at most 64 draw keys (material i%64,
// all sharing mesh 1), standing in
// for an ECS snapshot when none is wired to a live scene.
func sampleDynamicObjects(n int) []robj.DynamicObject {
	objs := make([]robj.DynamicObject, n)
	var model linear.M4
	model.I()
	for i := range objs {
		objs[i] = robj.DynamicObject{
			LayerMask: 1,
			Key:       robj.MakeKey(uint32(i%64), 0, 1, 0),
			MeshID:    1,
			Model:     model,
			EntityID:  uint32(i),
		}
	}
	return objs
}
