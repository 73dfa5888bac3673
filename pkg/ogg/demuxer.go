package ogg

import (
	"io"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"oggpcm/pkg/av"
	"oggpcm/pkg/metrics"
)

const unknownCodec = "unknown"

// logicalStream is the demuxer's record for one serial number.
type logicalStream struct {
	st     *av.Stream
	codec  *Codec
	parser HeaderParser // created on the first packet, owned by this record

	partial     []byte // packet continued on the next page
	firstPacket bool
	headers     int // header packets accepted so far
	headersDone bool
	rejected    bool
	eos         bool
}

func (ls *logicalStream) codecName() string {
	if ls.codec == nil {
		return unknownCodec
	}
	return ls.codec.Name
}

// Demuxer splits an Ogg physical stream into packets of its logical streams
// and runs each stream's header packets through its codec's HeaderParser.
type Demuxer struct {
	pr       *PageReader
	registry *Registry
	logger   *zap.Logger
	metrics  *metrics.Metrics

	verifyCRC   bool
	dropUnknown bool

	streams  map[uint32]*logicalStream
	order    []*logicalStream
	rejected []*StreamError
	queue    []*av.Packet

	sawDataPage bool
}

func NewDemuxer(r io.Reader, opts ...demuxerOption) (*Demuxer, error) {
	return (&Demuxer{
		verifyCRC:   true,
		dropUnknown: true,
		streams:     make(map[uint32]*logicalStream),
	}).loadOptions(r, opts...)
}

func (d *Demuxer) loadOptions(r io.Reader, opts ...demuxerOption) (*Demuxer, error) {
	for _, opt := range opts {
		opt(d)
	}

	if r == nil {
		return nil, errDemuxerReader
	}

	if d.registry == nil {
		return nil, errDemuxerRegistry
	}

	if d.logger == nil {
		d.logger = zap.NewNop()
	}

	d.pr = NewPageReader(r, WithVerifyCRC(d.verifyCRC))

	return d, nil
}

// Streams returns the logical streams seen so far, in order of appearance.
func (d *Demuxer) Streams() []*av.Stream {
	sts := make([]*av.Stream, 0, len(d.order))
	for _, ls := range d.order {
		sts = append(sts, ls.st)
	}
	return sts
}

// Rejected returns the streams whose header packets failed to parse.
func (d *Demuxer) Rejected() []*StreamError {
	return d.rejected
}

// ReadHeaders reads pages until every logical stream that began at the
// start of the input has finished or failed its header phase. Data packets
// read on the way are kept for ReadPacket. Rejected streams do not stop it;
// they are listed by Rejected.
func (d *Demuxer) ReadHeaders() error {
	for !d.headersComplete() {
		err := d.step()
		if err == nil {
			continue
		}

		var se *StreamError
		if errors.As(err, &se) {
			continue
		}
		if errors.Cause(err) == io.EOF || errors.Cause(err) == ErrUnexpectedEOS {
			break
		}
		return errors.Wrap(err, "read headers")
	}

	if len(d.order) == 0 {
		return errNoStreams
	}

	return nil
}

func (d *Demuxer) headersComplete() bool {
	if !d.sawDataPage || len(d.order) == 0 {
		return false
	}
	for _, ls := range d.order {
		if !ls.headersDone && !ls.rejected {
			return false
		}
	}
	return true
}

// ReadPacket returns the next data packet of any accepted logical stream.
// Header packets are consumed internally. When a stream's header fails to
// parse ReadPacket returns a *StreamError; the caller may keep reading the
// remaining streams. It returns io.EOF at the end of the input.
func (d *Demuxer) ReadPacket() (*av.Packet, error) {
	for len(d.queue) == 0 {
		if err := d.step(); err != nil {
			return nil, err
		}
	}

	pkt := d.queue[0]
	d.queue[0] = nil
	d.queue = d.queue[1:]
	return pkt, nil
}

// step reads one page and dispatches its packets.
func (d *Demuxer) step() error {
	for {
		page, err := d.pr.ReadPage()
		if err == nil {
			d.metrics.PageRead(d.pr.Skipped())
			if d.pr.Skipped() > 0 {
				d.logger.Warn("skipped bytes before page", zap.Int64("bytes", d.pr.Skipped()),
					zap.Int64("offset", d.pr.Offset()))
			}
			return d.handlePage(page)
		}

		switch errors.Cause(err) {
		case io.EOF:
			d.finish()
			return io.EOF
		case ErrBadCRC:
			d.metrics.BadPage("crc")
			d.logger.Warn("discard page", zap.Error(err))
		case ErrInvalidPage:
			d.metrics.BadPage("invalid")
			d.logger.Warn("discard page", zap.Error(err))
		default:
			d.finish()
			return errors.Wrap(err, "read page")
		}
	}
}

func (d *Demuxer) finish() {
	for _, ls := range d.order {
		if len(ls.partial) > 0 {
			d.logger.Warn("incomplete packet at end of input",
				zap.Uint32("serial", ls.st.Serial), zap.Int("bytes", len(ls.partial)))
			ls.partial = nil
		}
	}
}

func (d *Demuxer) handlePage(page *Page) error {
	ls, ok := d.streams[page.Serial]
	if !ok {
		if !page.IsBOS() {
			d.logger.Debug("page for unknown stream", zap.Uint32("serial", page.Serial))
			d.metrics.BadPage("orphan")
			return nil
		}

		ls = &logicalStream{
			st:          av.NewStream(len(d.order), page.Serial),
			firstPacket: true,
		}
		d.streams[page.Serial] = ls
		d.order = append(d.order, ls)
	} else if page.IsBOS() {
		d.logger.Warn("repeated bos page", zap.Uint32("serial", page.Serial))
	}

	if !page.IsBOS() {
		d.sawDataPage = true
	}

	if ls.eos {
		d.logger.Warn("page after eos", zap.Uint32("serial", page.Serial), zap.Uint32("seq", page.Sequence))
	}
	ls.eos = page.IsEOS()

	var firstErr error
	packets := d.splitPage(ls, page)
	for i, data := range packets {
		opts := []av.PacketOption{
			av.WithPacketData(data),
			av.WithPacketSerial(page.Serial),
			av.WithPacketStreamIndex(ls.st.Index),
		}
		if i == len(packets)-1 {
			opts = append(opts, av.WithPacketGranule(page.GranulePos))
			if page.IsEOS() && len(ls.partial) == 0 {
				opts = append(opts, av.WithPacketFlags(av.FlagEOS))
			}
		}
		pkt := av.NewPacket(opts...)

		// packets after a rejection are still counted as dropped
		if err := d.handlePacket(ls, pkt); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

// splitPage returns the packets completed on page, joining data carried over
// from previous pages.
func (d *Demuxer) splitPage(ls *logicalStream, page *Page) [][]byte {
	if len(ls.partial) > 0 && !page.IsContinued() {
		d.logger.Warn("drop interrupted packet", zap.Uint32("serial", page.Serial), zap.Int("bytes", len(ls.partial)))
		d.metrics.Packet(ls.codecName(), metrics.PacketDropped)
		ls.partial = nil
	}

	// continuation with nothing to continue: skip its tail
	skip := page.IsContinued() && len(ls.partial) == 0

	var packets [][]byte
	offset := 0
	cur := ls.partial
	for _, l := range page.Segments {
		seg := page.Payload[offset : offset+int(l)]
		offset += int(l)

		if !skip {
			cur = append(cur, seg...)
		}
		if l < 255 {
			if !skip {
				packets = append(packets, cur)
			}
			skip = false
			cur = nil
		}
	}

	if skip {
		d.logger.Debug("drop orphaned continuation", zap.Uint32("serial", page.Serial))
	}
	ls.partial = cur

	return packets
}

func (d *Demuxer) handlePacket(ls *logicalStream, pkt *av.Packet) error {
	if ls.rejected {
		d.metrics.Packet(ls.codecName(), metrics.PacketDropped)
		return nil
	}

	if ls.firstPacket {
		ls.firstPacket = false
		pkt.Flags |= av.FlagBOS
		d.openStream(ls, pkt.Data)
	}

	if ls.codec == nil {
		if d.dropUnknown {
			d.metrics.Packet(unknownCodec, metrics.PacketDropped)
			return nil
		}
		d.enqueue(ls, pkt)
		return nil
	}

	if !ls.headersDone {
		ok, err := ls.parser.Header(ls.st, pkt)
		if err != nil {
			return d.reject(ls, err)
		}
		if ok {
			ls.headers++
			d.metrics.Packet(ls.codec.Name, metrics.PacketHeader)
			return nil
		}

		ls.headersDone = true
		d.accept(ls)
	}

	d.enqueue(ls, pkt)
	return nil
}

// openStream selects the codec for a new logical stream from its first packet.
func (d *Demuxer) openStream(ls *logicalStream, first []byte) {
	ls.codec = d.registry.Find(first)
	if ls.codec == nil {
		ls.st.Codec = unknownCodec
		ls.headersDone = true
		d.metrics.Stream(unknownCodec, metrics.StreamIgnored)
		d.logger.Info("unknown codec", zap.Uint32("serial", ls.st.Serial), zap.Binary("magic", magicPrefix(first)))
		return
	}

	ls.st.Codec = ls.codec.Name
	ls.parser = ls.codec.NewParser()
	d.logger.Debug("open stream", zap.Uint32("serial", ls.st.Serial), zap.String("codec", ls.codec.Name))
}

func (d *Demuxer) accept(ls *logicalStream) {
	if ls.headers < ls.codec.Headers {
		d.logger.Warn("fewer header packets than declared",
			zap.Uint32("serial", ls.st.Serial), zap.Int("got", ls.headers), zap.Int("want", ls.codec.Headers))
	}

	d.metrics.Stream(ls.codec.Name, metrics.StreamAccepted)
	d.logger.Info("stream ready",
		zap.Int("index", ls.st.Index),
		zap.Uint32("serial", ls.st.Serial),
		zap.String("codec", ls.codec.Name),
		zap.Stringer("codec_id", ls.st.CodecID),
		zap.Uint32("sample_rate", ls.st.SampleRate),
		zap.Uint8("channels", ls.st.Channels),
		zap.Int("headers", ls.headers),
	)
}

func (d *Demuxer) reject(ls *logicalStream, err error) error {
	ls.rejected = true
	ls.partial = nil

	se := &StreamError{Serial: ls.st.Serial, Codec: ls.codec.Name, Err: err}
	d.rejected = append(d.rejected, se)

	d.metrics.Stream(ls.codec.Name, metrics.StreamRejected)
	d.logger.Error("reject stream", zap.Uint32("serial", ls.st.Serial), zap.String("codec", ls.codec.Name), zap.Error(err))

	return se
}

func (d *Demuxer) enqueue(ls *logicalStream, pkt *av.Packet) {
	d.metrics.Packet(ls.codecName(), metrics.PacketData)
	d.queue = append(d.queue, pkt)
}

func magicPrefix(b []byte) []byte {
	if len(b) > 8 {
		return b[:8]
	}
	return b
}

type demuxerOption func(*Demuxer)

func WithDemuxerRegistry(r *Registry) demuxerOption {
	return func(d *Demuxer) {
		d.registry = r
	}
}

func WithDemuxerLogger(l *zap.Logger) demuxerOption {
	return func(d *Demuxer) {
		d.logger = l
	}
}

func WithDemuxerMetrics(m *metrics.Metrics) demuxerOption {
	return func(d *Demuxer) {
		d.metrics = m
	}
}

func WithDemuxerVerifyCRC(verify bool) demuxerOption {
	return func(d *Demuxer) {
		d.verifyCRC = verify
	}
}

// WithDemuxerDropUnknown controls whether packets of streams no registered
// codec claims are dropped or returned as data.
func WithDemuxerDropUnknown(drop bool) demuxerOption {
	return func(d *Demuxer) {
		d.dropUnknown = drop
	}
}

var (
	errDemuxerReader   = errors.New("demuxer source reader required")
	errDemuxerRegistry = errors.New("demuxer codec registry required")
	errNoStreams       = errors.New("ogg: no logical streams")
)
