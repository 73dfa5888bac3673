package probe

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"oggpcm/pkg/av"
	"oggpcm/pkg/av/flv"
	"oggpcm/pkg/metrics"
	"oggpcm/pkg/ogg"
)

// StreamInfo summarises one logical stream of a probed input.
type StreamInfo struct {
	*av.Stream

	Packets     int
	Bytes       int64
	LastGranule int64
	Err         error  // header error that rejected the stream
	FLVPath     string // remux output, if any

	// FLVHeader is the audio tag header read back from FLVPath.
	FLVHeader av.AudioPacketHeader
}

// Duration is the stream length derived from its last granule position.
func (si *StreamInfo) Duration() time.Duration {
	return si.Stream.Duration(si.LastGranule)
}

type Result struct {
	Name    string
	Streams []*StreamInfo
}

// Prober demuxes whole Ogg inputs and reports what they contain.
type Prober struct {
	registry *ogg.Registry
	logger   *zap.Logger
	metrics  *metrics.Metrics

	verifyCRC   bool
	dropUnknown bool
	flvDir      string
}

func New(opts ...proberOption) (*Prober, error) {
	return (&Prober{verifyCRC: true, dropUnknown: true}).loadOptions(opts...)
}

func (p *Prober) loadOptions(opts ...proberOption) (*Prober, error) {
	for _, opt := range opts {
		opt(p)
	}

	if p.registry == nil {
		return nil, errProberRegistry
	}

	if p.logger == nil {
		p.logger = zap.NewNop()
	}

	return p, nil
}

// ProbeFile opens path and probes it.
func (p *Prober) ProbeFile(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open input")
	}
	defer f.Close()

	return p.Probe(filepath.Base(path), f)
}

// Probe reads r to the end. Rejected streams are reported in the result;
// only I/O and framing failures are returned as errors.
func (p *Prober) Probe(name string, r io.Reader) (*Result, error) {
	logger := p.logger.With(zap.String("input", name))

	d, err := ogg.NewDemuxer(r,
		ogg.WithDemuxerRegistry(p.registry),
		ogg.WithDemuxerLogger(logger),
		ogg.WithDemuxerMetrics(p.metrics),
		ogg.WithDemuxerVerifyCRC(p.verifyCRC),
		ogg.WithDemuxerDropUnknown(p.dropUnknown),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create demuxer")
	}

	res := &Result{Name: name}
	infos := make(map[int]*StreamInfo)
	info := func(st *av.Stream) *StreamInfo {
		si, ok := infos[st.Index]
		if !ok {
			si = &StreamInfo{Stream: st, LastGranule: av.NoGranule}
			infos[st.Index] = si
		}
		return si
	}

	remux := make(map[int]*remuxer)
	defer func() {
		for _, rm := range remux {
			rm.close(logger)
		}
	}()

	for {
		pkt, err := d.ReadPacket()
		if err == io.EOF {
			break
		}
		if err != nil {
			var se *ogg.StreamError
			if errors.As(err, &se) {
				continue
			}
			if errors.Cause(err) == ogg.ErrUnexpectedEOS {
				logger.Warn("input truncated", zap.Error(err))
				break
			}
			return nil, errors.Wrap(err, "read packet")
		}

		st := d.Streams()[pkt.StreamIndex]
		si := info(st)
		si.Packets++
		si.Bytes += int64(len(pkt.Data))
		if pkt.Granule != av.NoGranule {
			si.LastGranule = pkt.Granule
		}

		if p.flvDir == "" || st.MediaType != av.MediaTypeAudio {
			continue
		}
		rm, ok := remux[st.Index]
		if !ok {
			rm = p.openRemuxer(logger, name, st)
			remux[st.Index] = rm
			if rm != nil {
				si.FLVPath = rm.path
			}
		}
		if rm != nil {
			if err := rm.w.WritePacket(pkt); err != nil {
				return nil, errors.Wrapf(err, "remux stream %d", st.Index)
			}
		}
	}

	for idx, rm := range remux {
		if rm == nil {
			continue
		}
		rm.close(logger)
		hdr, err := readFLVHeader(rm.path)
		if err != nil {
			return nil, errors.Wrapf(err, "verify flv output of stream %d", idx)
		}
		infos[idx].FLVHeader = hdr
	}

	for _, st := range d.Streams() {
		res.Streams = append(res.Streams, info(st))
	}
	for _, se := range d.Rejected() {
		for _, si := range res.Streams {
			if si.Serial == se.Serial {
				si.Err = se.Err
			}
		}
	}

	return res, nil
}

type remuxer struct {
	path string
	f    *os.File
	w    *flv.Writer
}

func (rm *remuxer) close(logger *zap.Logger) {
	if rm == nil || rm.f == nil {
		return
	}
	if err := rm.f.Close(); err != nil {
		logger.Error("close flv output", zap.String("path", rm.path), zap.Error(err))
	}
	rm.f = nil
}

// readFLVHeader returns the header of the first audio tag in an FLV file.
func readFLVHeader(path string) (av.AudioPacketHeader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open flv")
	}
	defer f.Close()

	r, err := flv.NewReader(f)
	if err != nil {
		return nil, errors.Wrap(err, "create flv reader")
	}

	pkt, err := r.ReadPacket()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read first audio tag")
	}

	hdr, ok := pkt.PacketHeader.(av.AudioPacketHeader)
	if !ok {
		return nil, errors.New("first tag has no audio header")
	}
	return hdr, nil
}

// openRemuxer returns nil when the stream cannot be remuxed.
func (p *Prober) openRemuxer(logger *zap.Logger, name string, st *av.Stream) *remuxer {
	if _, err := flv.NewAudioTag(st); err != nil {
		logger.Info("skip flv remux", zap.Int("stream", st.Index), zap.Error(err))
		return nil
	}

	base := strings.TrimSuffix(name, filepath.Ext(name))
	path := filepath.Join(p.flvDir, fmt.Sprintf("%s.%08x.flv", base, st.Serial))

	f, err := os.Create(path)
	if err != nil {
		logger.Error("create flv output", zap.String("path", path), zap.Error(err))
		return nil
	}

	w, err := flv.NewWriter(f, st, 0)
	if err != nil {
		f.Close()
		logger.Error("write flv header", zap.String("path", path), zap.Error(err))
		return nil
	}

	return &remuxer{path: path, f: f, w: w}
}

type proberOption func(*Prober)

func WithRegistry(r *ogg.Registry) proberOption {
	return func(p *Prober) {
		p.registry = r
	}
}

func WithLogger(l *zap.Logger) proberOption {
	return func(p *Prober) {
		p.logger = l
	}
}

func WithMetrics(m *metrics.Metrics) proberOption {
	return func(p *Prober) {
		p.metrics = m
	}
}

func WithVerifyCRC(verify bool) proberOption {
	return func(p *Prober) {
		p.verifyCRC = verify
	}
}

func WithDropUnknown(drop bool) proberOption {
	return func(p *Prober) {
		p.dropUnknown = drop
	}
}

// WithFLVDir enables remuxing of FLV-compatible PCM streams into dir.
func WithFLVDir(dir string) proberOption {
	return func(p *Prober) {
		p.flvDir = dir
	}
}

var errProberRegistry = errors.New("prober codec registry required")
