package server

import (
	"net/http"
	"strconv"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/golang/geo/r1"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	geojson "github.com/paulmach/go.geojson"

	"skysafe/backend/db"
	"skysafe/backend/geom"
	"skysafe/backend/server/api"
)

// MapObstacles serves the approved obstacles inside the requested
// viewport as a GeoJSON FeatureCollection for the map layer. Public:
// approved obstacles are airspace-safety information.
func (s *Server) MapObstacles(c *gin.Context) {
	viewport, err := parseViewport(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	reports, err := db.ListReports(s.db, db.ReportFilter{
		Statuses: []string{api.StatusApproved},
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to list obstacles"})
		return
	}

	fc := geojson.NewFeatureCollection()
	for i := range reports {
		r := &reports[i]
		if r.Latitude == nil || r.Longitude == nil {
			continue
		}
		lat, _ := r.Latitude.Float64()
		lon, _ := r.Longitude.Float64()
		if viewport != nil && !viewport.ContainsLatLng(s2.LatLngFromDegrees(lat, lon)) {
			continue
		}
		fc.AddFeature(obstacleFeature(r, lat, lon))
	}

	log.Infof("Serving %d obstacles for the map", len(fc.Features))
	c.JSON(http.StatusOK, fc)
}

// parseViewport reads the optional latmin/lonmin/latmax/lonmax query
// bounds. No bounds means the whole world.
func parseViewport(c *gin.Context) (*s2.Rect, error) {
	raw := [4]string{c.Query("latmin"), c.Query("lonmin"), c.Query("latmax"), c.Query("lonmax")}
	if raw[0] == "" && raw[1] == "" && raw[2] == "" && raw[3] == "" {
		return nil, nil
	}

	var vals [4]float64
	names := [4]string{"latmin", "lonmin", "latmax", "lonmax"}
	for i, s := range raw {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, &viewportError{names[i]}
		}
		vals[i] = v
	}

	minLL := s2.LatLngFromDegrees(vals[0], vals[1])
	maxLL := s2.LatLngFromDegrees(vals[2], vals[3])
	rect := s2.Rect{
		Lat: r1.Interval{Lo: minLL.Lat.Radians(), Hi: maxLL.Lat.Radians()},
		Lng: s1.Interval{Lo: minLL.Lng.Radians(), Hi: maxLL.Lng.Radians()},
	}
	return &rect, nil
}

type viewportError struct {
	field string
}

func (e *viewportError) Error() string {
	return "bad or missing viewport parameter " + e.field
}

// obstacleFeature renders one approved report as a GeoJSON feature.
// The drawn shape is preserved where GeoJSON can express it; circles
// become points with a radius property, the way the map client draws
// them back.
func obstacleFeature(r *api.Report, lat, lon float64) *geojson.Feature {
	var f *geojson.Feature
	g := r.Geometry
	switch {
	case g == nil:
		f = geojson.NewPointFeature([]float64{lon, lat})
	case g.Type == geom.TypeLineString:
		line := make([][]float64, len(g.Line))
		for i, p := range g.Line {
			line[i] = []float64{p.Lon, p.Lat}
		}
		f = geojson.NewLineStringFeature(line)
	case g.Type == geom.TypeRectangle || g.Type == geom.TypePolygon:
		ring := make([][]float64, len(g.Ring))
		for i, p := range g.Ring {
			ring[i] = []float64{p.Lon, p.Lat}
		}
		f = geojson.NewPolygonFeature([][][]float64{ring})
	case g.Type == geom.TypeCircle:
		f = geojson.NewPointFeature([]float64{g.Point.Lon, g.Point.Lat})
		f.SetProperty("radius_m", g.Radius)
	default:
		f = geojson.NewPointFeature([]float64{lon, lat})
	}

	f.SetProperty("id", r.ID)
	f.SetProperty("status", r.Status)
	if r.ObstacleType != "" {
		f.SetProperty("obstacle_type", r.ObstacleType)
	}
	if r.HeightFt != nil {
		f.SetProperty("height_ft", *r.HeightFt)
	}
	return f
}

// ObstacleTypes serves the reference data for the report form picker.
func (s *Server) ObstacleTypes(c *gin.Context) {
	types, err := db.ListObstacleTypes(s.db)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to list obstacle types"})
		return
	}
	c.JSON(http.StatusOK, api.ObstacleTypesResponse{Types: types})
}
