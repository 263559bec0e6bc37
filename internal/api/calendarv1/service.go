package calendarv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "aizily.calendar.v1.CalendarService"

// FullMethod returns the wire path of an RPC, e.g. "/aizily.calendar.v1.CalendarService/DayEvents".
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

type CalendarServiceServer interface {
	CreateAppointment(context.Context, *CreateAppointmentRequest) (*CreateAppointmentResponse, error)
	ListAppointments(context.Context, *ListAppointmentsRequest) (*ListAppointmentsResponse, error)
	DeleteAppointment(context.Context, *DeleteAppointmentRequest) (*DeleteAppointmentResponse, error)
	CreateRecurringSeries(context.Context, *CreateRecurringSeriesRequest) (*CreateRecurringSeriesResponse, error)
	ListOccurrences(context.Context, *ListOccurrencesRequest) (*ListOccurrencesResponse, error)
	SkipOccurrence(context.Context, *SkipOccurrenceRequest) (*SkipOccurrenceResponse, error)
	DeleteRecurringSeries(context.Context, *DeleteRecurringSeriesRequest) (*DeleteRecurringSeriesResponse, error)
	DayEvents(context.Context, *DayRequest) (*DayEventsResponse, error)
	LayoutDay(context.Context, *DayRequest) (*LayoutDayResponse, error)
	ResolveSelection(context.Context, *ResolveSelectionRequest) (*ResolveSelectionResponse, error)
	BookSelection(context.Context, *BookSelectionRequest) (*BookSelectionResponse, error)
	Ask(context.Context, *AskRequest) (*AskResponse, error)
}

// UnimplementedCalendarServiceServer answers Unimplemented for every RPC.
// Embed it so servers keep compiling when RPCs are added.
type UnimplementedCalendarServiceServer struct{}

func unimplemented(method string) error {
	return status.Errorf(codes.Unimplemented, "method %s not implemented", method)
}

func (UnimplementedCalendarServiceServer) CreateAppointment(context.Context, *CreateAppointmentRequest) (*CreateAppointmentResponse, error) {
	return nil, unimplemented("CreateAppointment")
}

func (UnimplementedCalendarServiceServer) ListAppointments(context.Context, *ListAppointmentsRequest) (*ListAppointmentsResponse, error) {
	return nil, unimplemented("ListAppointments")
}

func (UnimplementedCalendarServiceServer) DeleteAppointment(context.Context, *DeleteAppointmentRequest) (*DeleteAppointmentResponse, error) {
	return nil, unimplemented("DeleteAppointment")
}

func (UnimplementedCalendarServiceServer) CreateRecurringSeries(context.Context, *CreateRecurringSeriesRequest) (*CreateRecurringSeriesResponse, error) {
	return nil, unimplemented("CreateRecurringSeries")
}

func (UnimplementedCalendarServiceServer) ListOccurrences(context.Context, *ListOccurrencesRequest) (*ListOccurrencesResponse, error) {
	return nil, unimplemented("ListOccurrences")
}

func (UnimplementedCalendarServiceServer) SkipOccurrence(context.Context, *SkipOccurrenceRequest) (*SkipOccurrenceResponse, error) {
	return nil, unimplemented("SkipOccurrence")
}

func (UnimplementedCalendarServiceServer) DeleteRecurringSeries(context.Context, *DeleteRecurringSeriesRequest) (*DeleteRecurringSeriesResponse, error) {
	return nil, unimplemented("DeleteRecurringSeries")
}

func (UnimplementedCalendarServiceServer) DayEvents(context.Context, *DayRequest) (*DayEventsResponse, error) {
	return nil, unimplemented("DayEvents")
}

func (UnimplementedCalendarServiceServer) LayoutDay(context.Context, *DayRequest) (*LayoutDayResponse, error) {
	return nil, unimplemented("LayoutDay")
}

func (UnimplementedCalendarServiceServer) ResolveSelection(context.Context, *ResolveSelectionRequest) (*ResolveSelectionResponse, error) {
	return nil, unimplemented("ResolveSelection")
}

func (UnimplementedCalendarServiceServer) BookSelection(context.Context, *BookSelectionRequest) (*BookSelectionResponse, error) {
	return nil, unimplemented("BookSelection")
}

func (UnimplementedCalendarServiceServer) Ask(context.Context, *AskRequest) (*AskResponse, error) {
	return nil, unimplemented("Ask")
}

func RegisterCalendarServiceServer(s grpc.ServiceRegistrar, srv CalendarServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// unary builds a method descriptor that decodes Req and dispatches to call,
// running the server's interceptor chain when one is installed.
func unary[Req, Resp any](method string, call func(CalendarServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(CalendarServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(method)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(CalendarServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CalendarServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("CreateAppointment", CalendarServiceServer.CreateAppointment),
		unary("ListAppointments", CalendarServiceServer.ListAppointments),
		unary("DeleteAppointment", CalendarServiceServer.DeleteAppointment),
		unary("CreateRecurringSeries", CalendarServiceServer.CreateRecurringSeries),
		unary("ListOccurrences", CalendarServiceServer.ListOccurrences),
		unary("SkipOccurrence", CalendarServiceServer.SkipOccurrence),
		unary("DeleteRecurringSeries", CalendarServiceServer.DeleteRecurringSeries),
		unary("DayEvents", CalendarServiceServer.DayEvents),
		unary("LayoutDay", CalendarServiceServer.LayoutDay),
		unary("ResolveSelection", CalendarServiceServer.ResolveSelection),
		unary("BookSelection", CalendarServiceServer.BookSelection),
		unary("Ask", CalendarServiceServer.Ask),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "aizily/calendar/v1/calendar",
}

type CalendarServiceClient interface {
	CreateAppointment(ctx context.Context, in *CreateAppointmentRequest, opts ...grpc.CallOption) (*CreateAppointmentResponse, error)
	ListAppointments(ctx context.Context, in *ListAppointmentsRequest, opts ...grpc.CallOption) (*ListAppointmentsResponse, error)
	DeleteAppointment(ctx context.Context, in *DeleteAppointmentRequest, opts ...grpc.CallOption) (*DeleteAppointmentResponse, error)
	CreateRecurringSeries(ctx context.Context, in *CreateRecurringSeriesRequest, opts ...grpc.CallOption) (*CreateRecurringSeriesResponse, error)
	ListOccurrences(ctx context.Context, in *ListOccurrencesRequest, opts ...grpc.CallOption) (*ListOccurrencesResponse, error)
	SkipOccurrence(ctx context.Context, in *SkipOccurrenceRequest, opts ...grpc.CallOption) (*SkipOccurrenceResponse, error)
	DeleteRecurringSeries(ctx context.Context, in *DeleteRecurringSeriesRequest, opts ...grpc.CallOption) (*DeleteRecurringSeriesResponse, error)
	DayEvents(ctx context.Context, in *DayRequest, opts ...grpc.CallOption) (*DayEventsResponse, error)
	LayoutDay(ctx context.Context, in *DayRequest, opts ...grpc.CallOption) (*LayoutDayResponse, error)
	ResolveSelection(ctx context.Context, in *ResolveSelectionRequest, opts ...grpc.CallOption) (*ResolveSelectionResponse, error)
	BookSelection(ctx context.Context, in *BookSelectionRequest, opts ...grpc.CallOption) (*BookSelectionResponse, error)
	Ask(ctx context.Context, in *AskRequest, opts ...grpc.CallOption) (*AskResponse, error)
}

type calendarServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewCalendarServiceClient returns a client that always requests the JSON codec.
func NewCalendarServiceClient(cc grpc.ClientConnInterface) CalendarServiceClient {
	return &calendarServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *calendarServiceClient) CreateAppointment(ctx context.Context, in *CreateAppointmentRequest, opts ...grpc.CallOption) (*CreateAppointmentResponse, error) {
	return invoke[CreateAppointmentResponse](ctx, c.cc, "CreateAppointment", in, opts)
}

func (c *calendarServiceClient) ListAppointments(ctx context.Context, in *ListAppointmentsRequest, opts ...grpc.CallOption) (*ListAppointmentsResponse, error) {
	return invoke[ListAppointmentsResponse](ctx, c.cc, "ListAppointments", in, opts)
}

func (c *calendarServiceClient) DeleteAppointment(ctx context.Context, in *DeleteAppointmentRequest, opts ...grpc.CallOption) (*DeleteAppointmentResponse, error) {
	return invoke[DeleteAppointmentResponse](ctx, c.cc, "DeleteAppointment", in, opts)
}

func (c *calendarServiceClient) CreateRecurringSeries(ctx context.Context, in *CreateRecurringSeriesRequest, opts ...grpc.CallOption) (*CreateRecurringSeriesResponse, error) {
	return invoke[CreateRecurringSeriesResponse](ctx, c.cc, "CreateRecurringSeries", in, opts)
}

func (c *calendarServiceClient) ListOccurrences(ctx context.Context, in *ListOccurrencesRequest, opts ...grpc.CallOption) (*ListOccurrencesResponse, error) {
	return invoke[ListOccurrencesResponse](ctx, c.cc, "ListOccurrences", in, opts)
}

func (c *calendarServiceClient) SkipOccurrence(ctx context.Context, in *SkipOccurrenceRequest, opts ...grpc.CallOption) (*SkipOccurrenceResponse, error) {
	return invoke[SkipOccurrenceResponse](ctx, c.cc, "SkipOccurrence", in, opts)
}

func (c *calendarServiceClient) DeleteRecurringSeries(ctx context.Context, in *DeleteRecurringSeriesRequest, opts ...grpc.CallOption) (*DeleteRecurringSeriesResponse, error) {
	return invoke[DeleteRecurringSeriesResponse](ctx, c.cc, "DeleteRecurringSeries", in, opts)
}

func (c *calendarServiceClient) DayEvents(ctx context.Context, in *DayRequest, opts ...grpc.CallOption) (*DayEventsResponse, error) {
	return invoke[DayEventsResponse](ctx, c.cc, "DayEvents", in, opts)
}

func (c *calendarServiceClient) LayoutDay(ctx context.Context, in *DayRequest, opts ...grpc.CallOption) (*LayoutDayResponse, error) {
	return invoke[LayoutDayResponse](ctx, c.cc, "LayoutDay", in, opts)
}

func (c *calendarServiceClient) ResolveSelection(ctx context.Context, in *ResolveSelectionRequest, opts ...grpc.CallOption) (*ResolveSelectionResponse, error) {
	return invoke[ResolveSelectionResponse](ctx, c.cc, "ResolveSelection", in, opts)
}

func (c *calendarServiceClient) BookSelection(ctx context.Context, in *BookSelectionRequest, opts ...grpc.CallOption) (*BookSelectionResponse, error) {
	return invoke[BookSelectionResponse](ctx, c.cc, "BookSelection", in, opts)
}

func (c *calendarServiceClient) Ask(ctx context.Context, in *AskRequest, opts ...grpc.CallOption) (*AskResponse, error) {
	return invoke[AskResponse](ctx, c.cc, "Ask", in, opts)
}
